// Package c extracts functions, aggregate types, typedefs, macros and
// includes from C source and headers.
package c

import (
	"context"
	"path/filepath"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// Extractor extracts code structure from C files.
type Extractor struct {
	ast.Base
}

// New creates a C extractor.
func New(grammars grammar.Provider) *Extractor {
	return &Extractor{Base: ast.NewBase(ontology.C(), grammars, grammar.C)}
}

// Parse extracts symbols and relations from content.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	return e.Run(ctx, content, path, walk, scan)
}

// fileName names the file symbol; C has no module system, so the file is the unit.
func fileName(path string) string {
	return filepath.Base(path)
}

var keywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"sizeof": true, "do": true, "else": true, "case": true,
}
