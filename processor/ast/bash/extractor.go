// Package bash extracts functions, variables, sourced files and in-script
// function calls from shell scripts.
package bash

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// Extractor extracts code structure from shell scripts.
type Extractor struct {
	ast.Base
}

// New creates a Bash extractor.
func New(grammars grammar.Provider) *Extractor {
	return &Extractor{Base: ast.NewBase(ontology.Bash(), grammars, grammar.Bash)}
}

// Parse extracts symbols and relations from content.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	return e.Run(ctx, content, path, walk, scan)
}

func scriptName(path string) string {
	return filepath.Base(path)
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
