// Package languages wires every built-in extractor into an ast.Registry.
package languages

import (
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/bash"
	"github.com/c360studio/semgraph/processor/ast/c"
	"github.com/c360studio/semgraph/processor/ast/grammar"
	"github.com/c360studio/semgraph/processor/ast/javascript"
	"github.com/c360studio/semgraph/processor/ast/php"
	"github.com/c360studio/semgraph/processor/ast/python"
	"github.com/c360studio/semgraph/processor/ast/rust"
	"github.com/c360studio/semgraph/processor/ast/vue"
)

// WithDefaults returns a registry holding the seven built-in extractors.
// Each resolves its strategy against grammars once, here.
func WithDefaults(grammars grammar.Provider) *ast.Registry {
	r := ast.NewRegistry()
	for _, e := range Extractors(grammars) {
		r.Register(e)
	}
	return r
}

// Extractors constructs the built-in extractors.
func Extractors(grammars grammar.Provider) []ast.Extractor {
	return []ast.Extractor{
		python.New(grammars),
		javascript.New(grammars),
		rust.New(grammars),
		c.New(grammars),
		bash.New(grammars),
		php.New(grammars),
		vue.New(grammars),
	}
}
