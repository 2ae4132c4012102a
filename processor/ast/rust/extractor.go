// Package rust extracts symbols and relations from Rust source.
package rust

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// Extractor extracts code structure from Rust source files.
type Extractor struct {
	ast.Base
}

// New creates a Rust extractor.
func New(grammars grammar.Provider) *Extractor {
	return &Extractor{Base: ast.NewBase(ontology.Rust(), grammars, grammar.Rust)}
}

// Parse extracts symbols and relations from content.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	return e.Run(ctx, content, path, walk, scan)
}

// crateModule names the module of a file; mod.rs, lib.rs and main.rs take
// their directory's name.
func crateModule(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	switch name {
	case "mod", "lib", "main":
		if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != "src" && dir != string(filepath.Separator) {
			return dir
		}
	}
	return name
}

// joinUse appends item to a use path prefix.
func joinUse(prefix, item string) string {
	item = strings.TrimSpace(item)
	switch {
	case prefix == "":
		return item
	case item == "self":
		return prefix
	default:
		return prefix + "::" + item
	}
}
