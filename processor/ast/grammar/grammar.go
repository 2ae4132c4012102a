// Package grammar exposes the tree-sitter grammars linked into the binary and
// decides, by probing them, which ones extractors may rely on.
package grammar

import (
	"context"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar names understood by Builtin.
const (
	Python     = "python"
	JavaScript = "javascript"
	TypeScript = "typescript"
	Rust       = "rust"
	C          = "c"
	Bash       = "bash"
	PHP        = "php"
)

// Provider answers whether a grammar can be used in this process.
type Provider interface {
	Lookup(name string) (*sitter.Language, bool)
}

// Table is a Provider backed by a fixed map.
type Table map[string]*sitter.Language

// Lookup implements Provider.
func (t Table) Lookup(name string) (*sitter.Language, bool) {
	l, ok := t[name]
	return l, ok && l != nil
}

// Names returns the grammar names held by the table, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// probes holds a snippet each grammar must parse without error to be offered.
var probes = map[string]string{
	Python:     "x = 1\n",
	JavaScript: "let x = 1;\n",
	TypeScript: "let x: number = 1;\n",
	Rust:       "fn main() {}\n",
	C:          "int main(void) { return 0; }\n",
	Bash:       "echo ok\n",
	PHP:        "<?php echo 1;\n",
}

// Builtin returns the linked grammars that pass a probe parse.
func Builtin() Table {
	linked := map[string]*sitter.Language{
		Python:     python.GetLanguage(),
		JavaScript: javascript.GetLanguage(),
		TypeScript: typescript.GetLanguage(),
		Rust:       rust.GetLanguage(),
		C:          c.GetLanguage(),
		Bash:       bash.GetLanguage(),
		PHP:        php.GetLanguage(),
	}

	t := make(Table, len(linked))
	for name, lang := range linked {
		if probe(lang, probes[name]) {
			t[name] = lang
		}
	}
	return t
}

func probe(lang *sitter.Language, snippet string) bool {
	if lang == nil {
		return false
	}
	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(context.Background(), nil, []byte(snippet))
	if err != nil || tree == nil {
		return false
	}
	defer tree.Close()

	root := tree.RootNode()
	return root != nil && !root.HasError()
}

// None returns a provider with no grammars; every extractor falls back to patterns.
func None() Table {
	return Table{}
}

// Without returns a provider that hides the named grammars from p.
func Without(p Provider, names ...string) Provider {
	if len(names) == 0 {
		return p
	}
	return masked{inner: p, hidden: names}
}

type masked struct {
	inner  Provider
	hidden []string
}

func (m masked) Lookup(name string) (*sitter.Language, bool) {
	if slices.Contains(m.hidden, name) {
		return nil, false
	}
	if m.inner == nil {
		return nil, false
	}
	return m.inner.Lookup(name)
}
