// Package python extracts symbols and relations from Python source using the
// tree-sitter grammar, or line patterns when the grammar is unavailable.
package python

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// Extractor extracts code structure from Python source files.
type Extractor struct {
	ast.Base
}

// New creates a Python extractor. The grammar strategy is used when grammars
// provides the python grammar.
func New(grammars grammar.Provider) *Extractor {
	return &Extractor{Base: ast.NewBase(ontology.Python(), grammars, grammar.Python)}
}

// Parse extracts symbols and relations from content.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	return e.Run(ctx, content, path, walk, scan)
}

// moduleName derives the module name from the file path. Packages are named
// after their directory.
func moduleName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "__init__" {
		if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != string(filepath.Separator) {
			return dir
		}
	}
	return name
}

// isCapWords reports whether the last segment of a dotted name follows the
// CapWords class naming convention.
func isCapWords(name string) bool {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	return strings.ToUpper(name) != name
}

// isDottedName reports whether s is an identifier path like a.b.c.
func isDottedName(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for j, r := range part {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && j > 0:
			default:
				return false
			}
		}
	}
	return true
}
