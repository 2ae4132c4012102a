package php

import (
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

type walker struct {
	b    *ast.Builder
	src  []byte
	file string
}

func walk(b *ast.Builder, root *sitter.Node, src []byte) {
	w := &walker{b: b, src: src}
	w.file = b.Module(ontology.KindFile, fileName(b.Path()), grammar.EndLine(root))

	// A namespace statement without a body applies to the declarations that
	// follow it.
	var scope []string
	owner := w.file
	for _, c := range grammar.Named(root) {
		if c.Type() == "namespace_definition" && c.ChildByFieldName("body") == nil {
			if id, name := w.namespace(c); id != "" {
				scope, owner = []string{name}, id
			}
			continue
		}
		w.visit(c, scope, owner, false)
	}
}

func (w *walker) visit(n *sitter.Node, scope []string, owner string, inClass bool) {
	switch n.Type() {
	case "namespace_definition":
		id, name := w.namespace(n)
		if body := n.ChildByFieldName("body"); body != nil && id != "" {
			for _, c := range grammar.Named(body) {
				w.visit(c, []string{name}, id, false)
			}
		}
		return
	case "namespace_use_declaration":
		w.uses(n, owner)
		return
	case "class_declaration":
		w.classLike(n, ontology.KindClass, scope, owner)
		return
	case "interface_declaration":
		w.classLike(n, ontology.KindInterface, scope, owner)
		return
	case "trait_declaration":
		w.classLike(n, ontology.KindTrait, scope, owner)
		return
	case "function_definition":
		w.function(n, ontology.KindFunction, scope, owner)
		return
	case "method_declaration":
		w.function(n, ontology.KindMethod, scope, owner)
		return
	case "include_expression", "include_once_expression", "require_expression", "require_once_expression":
		if named := grammar.Named(n); len(named) > 0 {
			if target := includeTarget(grammar.Text(named[0], w.src)); target != "" {
				w.b.Relate(ontology.RelIncludes, w.file, target)
			}
		}
		return
	case "function_call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil && (fn.Type() == "name" || fn.Type() == "qualified_name") {
			w.b.Relate(ontology.RelCalls, owner, qualified(grammar.Text(fn, w.src)))
		}
	case "member_call_expression", "nullsafe_member_call_expression":
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "name" {
			w.b.Relate(ontology.RelCalls, owner, grammar.Text(name, w.src))
		}
	case "scoped_call_expression":
		scopeName := qualified(grammar.Field(n, "scope", w.src))
		if name := grammar.Field(n, "name", w.src); name != "" && scopeName != "" {
			w.b.Relate(ontology.RelCalls, owner, scopeName+"::"+name)
		}
	case "object_creation_expression":
		for _, c := range grammar.Named(n) {
			if c.Type() == "name" || c.Type() == "qualified_name" {
				w.b.Relate(ontology.RelInstantiates, owner, qualified(grammar.Text(c, w.src)))
				break
			}
		}
	}

	for _, c := range grammar.Named(n) {
		w.visit(c, scope, owner, inClass)
	}
}

func (w *walker) namespace(n *sitter.Node) (string, string) {
	name := qualified(grammar.Field(n, "name", w.src))
	if name == "" {
		return "", ""
	}
	id := w.b.Add(ontology.KindNamespace, name, nil, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, w.file, id)
	return id, name
}

func (w *walker) uses(n *sitter.Node, owner string) {
	prefix := ""
	for _, c := range grammar.Named(n) {
		switch c.Type() {
		case "namespace_name":
			prefix = qualified(grammar.Text(c, w.src))
		case "namespace_use_clause":
			w.useClause(c, prefix, owner)
		case "namespace_use_group":
			for _, clause := range grammar.Named(c) {
				w.useClause(clause, prefix, owner)
			}
		}
	}
}

func (w *walker) useClause(n *sitter.Node, prefix, owner string) {
	for _, c := range grammar.Named(n) {
		if c.Type() == "name" || c.Type() == "qualified_name" {
			target := qualified(grammar.Text(c, w.src))
			if prefix != "" {
				target = prefix + `\` + target
			}
			w.b.Relate(ontology.RelUses, owner, target)
			return
		}
	}
}

func (w *walker) classLike(n *sitter.Node, kind ontology.NodeKind, scope []string, owner string) {
	name := grammar.Field(n, "name", w.src)
	if name == "" {
		return
	}
	id := w.b.Add(kind, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)

	for _, c := range grammar.Named(n) {
		switch c.Type() {
		case "base_clause":
			for _, base := range w.names(c) {
				w.b.Relate(ontology.RelExtends, id, base)
			}
		case "class_interface_clause":
			for _, iface := range w.names(c) {
				w.b.Relate(ontology.RelImplements, id, iface)
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := append(slices.Clone(scope), name)
	for _, c := range grammar.Named(body) {
		w.visit(c, inner, id, true)
	}
}

func (w *walker) function(n *sitter.Node, kind ontology.NodeKind, scope []string, owner string) {
	name := grammar.Field(n, "name", w.src)
	if name == "" {
		return
	}
	id := w.b.Add(kind, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)
	if body := n.ChildByFieldName("body"); body != nil {
		inner := append(slices.Clone(scope), name)
		w.visit(body, inner, id, false)
	}
}

func (w *walker) names(n *sitter.Node) []string {
	var out []string
	for _, c := range grammar.Named(n) {
		if c.Type() == "name" || c.Type() == "qualified_name" {
			out = append(out, qualified(grammar.Text(c, w.src)))
		}
	}
	return out
}
