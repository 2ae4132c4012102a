package bash

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

type walker struct {
	b         *ast.Builder
	src       []byte
	script    string
	functions map[string]string
}

func walk(b *ast.Builder, root *sitter.Node, src []byte) {
	w := &walker{b: b, src: src, functions: make(map[string]string)}
	w.script = b.Module(ontology.KindScript, scriptName(b.Path()), grammar.EndLine(root))
	w.collect(root)
	w.visit(root, w.script)
}

// collect declares every function first so calls that precede a definition
// still resolve.
func (w *walker) collect(n *sitter.Node) {
	if n.Type() == "function_definition" {
		if name := grammar.Field(n, "name", w.src); name != "" {
			id := w.b.Add(ontology.KindFunction, name, nil, grammar.StartLine(n), grammar.EndLine(n))
			w.b.Relate(ontology.RelContains, w.script, id)
			w.functions[name] = id
		}
	}
	for _, c := range grammar.Named(n) {
		w.collect(c)
	}
}

func (w *walker) visit(n *sitter.Node, owner string) {
	switch n.Type() {
	case "function_definition":
		if id, ok := w.functions[grammar.Field(n, "name", w.src)]; ok {
			if body := n.ChildByFieldName("body"); body != nil {
				w.visit(body, id)
			}
		}
		return
	case "variable_assignment":
		if owner == w.script {
			if name := grammar.Field(n, "name", w.src); name != "" {
				id := w.b.Add(ontology.KindVariable, name, nil, grammar.StartLine(n), grammar.EndLine(n))
				w.b.Relate(ontology.RelContains, w.script, id)
			}
		}
	case "declaration_command":
		// local bindings belong to the function, not the script
		if first := n.Child(0); first != nil && first.Type() == "local" {
			return
		}
	case "command":
		w.command(n, owner)
	}

	for _, c := range grammar.Named(n) {
		w.visit(c, owner)
	}
}

func (w *walker) command(n *sitter.Node, owner string) {
	name := grammar.Field(n, "name", w.src)
	switch name {
	case "source", ".":
		if args := arguments(n); len(args) > 0 {
			w.b.Relate(ontology.RelSources, w.script, unquote(grammar.Text(args[0], w.src)))
		}
	default:
		if id, ok := w.functions[name]; ok {
			w.b.Relate(ontology.RelCalls, owner, id)
		}
	}
}

// arguments returns the argument nodes of a command, skipping its name and
// any leading assignments or redirects.
func arguments(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range grammar.Named(n) {
		switch c.Type() {
		case "command_name", "variable_assignment", "file_redirect", "heredoc_redirect", "herestring_redirect":
			continue
		}
		out = append(out, c)
	}
	return out
}
