// Package javascript extracts symbols and relations from JavaScript and
// TypeScript source.
package javascript

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// Extractor extracts code structure from JavaScript and TypeScript files.
type Extractor struct {
	ast.Base
	typescript *sitter.Language
}

// New creates a JavaScript extractor. TypeScript files use the typescript
// grammar when it is available and the javascript grammar otherwise.
func New(grammars grammar.Provider) *Extractor {
	e := &Extractor{Base: ast.NewBase(ontology.JavaScript(), grammars, grammar.JavaScript)}
	if grammars != nil && e.Strategy() == ast.StrategyGrammar {
		if l, ok := grammars.Lookup(grammar.TypeScript); ok {
			e.typescript = l
		}
	}
	return e
}

// Parse extracts symbols and relations from content.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	return e.ParseScript(ctx, content, path, isTypeScript(path))
}

// ParseScript extracts content attributed to path, choosing the grammar by
// the typescript flag instead of the file extension.
func (e *Extractor) ParseScript(ctx context.Context, content []byte, path string, typescript bool) *ast.ParseResult {
	lang := e.Grammar()
	if typescript && e.typescript != nil {
		lang = e.typescript
	}
	return e.RunWith(ctx, lang, content, path, Walk, Scan)
}

func isTypeScript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return true
	}
	return false
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// isName reports whether s is an identifier path like a.b.$c.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for j, r := range part {
			switch {
			case r == '_', r == '$', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && j > 0:
			default:
				return false
			}
		}
	}
	return true
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), "'\"`")
}
