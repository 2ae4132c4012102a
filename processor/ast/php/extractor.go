// Package php extracts namespaces, classes, interfaces, traits, functions and
// their relations from PHP source.
package php

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// Extractor extracts code structure from PHP files.
type Extractor struct {
	ast.Base
}

// New creates a PHP extractor.
func New(grammars grammar.Provider) *Extractor {
	return &Extractor{Base: ast.NewBase(ontology.PHP(), grammars, grammar.PHP)}
}

// Parse extracts symbols and relations from content.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	return e.Run(ctx, content, path, walk, scan)
}

func fileName(path string) string {
	return filepath.Base(path)
}

// qualified normalizes a PHP name reference: a leading namespace separator
// is dropped.
func qualified(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), `\`)
}

// includeTarget extracts the path from the operand of include or require.
func includeTarget(expr string) string {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimSuffix(strings.TrimPrefix(expr, "("), ")")
	return strings.Trim(strings.TrimSpace(expr), `"'`)
}
