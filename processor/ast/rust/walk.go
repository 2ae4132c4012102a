package rust

import (
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

type walker struct {
	b      *ast.Builder
	src    []byte
	module string
}

func walk(b *ast.Builder, root *sitter.Node, src []byte) {
	w := &walker{b: b, src: src}
	w.module = b.Module(ontology.KindModule, crateModule(b.Path()), grammar.EndLine(root))
	for _, child := range grammar.Named(root) {
		w.visit(child, nil, w.module, false)
	}
}

// visit dispatches on node type. inImpl is true for items directly inside an
// impl or trait body, where functions are methods.
func (w *walker) visit(n *sitter.Node, scope []string, owner string, inImpl bool) {
	switch n.Type() {
	case "use_declaration":
		for _, target := range w.expandUse(n.ChildByFieldName("argument"), "") {
			w.b.Relate(ontology.RelImports, owner, target)
		}
		return
	case "mod_item":
		w.container(n, ontology.KindMod, scope, owner, false)
		return
	case "struct_item":
		w.declare(n, ontology.KindStruct, scope, owner)
		return
	case "enum_item":
		w.declare(n, ontology.KindEnum, scope, owner)
		return
	case "trait_item":
		w.container(n, ontology.KindTrait, scope, owner, true)
		return
	case "impl_item":
		w.impl(n, scope, owner)
		return
	case "function_item", "function_signature_item":
		w.function(n, scope, owner, inImpl)
		return
	case "call_expression":
		w.call(n, scope, owner)
		return
	}

	for _, c := range grammar.Named(n) {
		w.visit(c, scope, owner, false)
	}
}

func (w *walker) declare(n *sitter.Node, kind ontology.NodeKind, scope []string, owner string) string {
	name := grammar.Field(n, "name", w.src)
	if name == "" {
		return ""
	}
	id := w.b.Add(kind, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)
	return id
}

// container declares a mod or trait and walks its body in the new scope.
func (w *walker) container(n *sitter.Node, kind ontology.NodeKind, scope []string, owner string, methods bool) {
	id := w.declare(n, kind, scope, owner)
	if id == "" {
		return
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := append(slices.Clone(scope), grammar.Field(n, "name", w.src))
	for _, c := range grammar.Named(body) {
		w.visit(c, inner, id, methods)
	}
}

func (w *walker) impl(n *sitter.Node, scope []string, owner string) {
	typeName := w.typeName(n.ChildByFieldName("type"))
	if trait := w.typeName(n.ChildByFieldName("trait")); trait != "" && typeName != "" {
		w.b.Relate(ontology.RelImplements, typeName, trait)
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := scope
	if typeName != "" {
		inner = append(slices.Clone(scope), typeName)
	}
	for _, c := range grammar.Named(body) {
		w.visit(c, inner, owner, true)
	}
}

func (w *walker) function(n *sitter.Node, scope []string, owner string, inImpl bool) {
	kind := ontology.KindFunction
	if inImpl {
		kind = ontology.KindMethod
	}
	id := w.declare(n, kind, scope, owner)
	if id == "" {
		return
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := append(slices.Clone(scope), grammar.Field(n, "name", w.src))
	for _, c := range grammar.Named(body) {
		w.visit(c, inner, id, false)
	}
}

func (w *walker) call(n *sitter.Node, scope []string, owner string) {
	fn := n.ChildByFieldName("function")
	if fn != nil {
		switch fn.Type() {
		case "identifier", "scoped_identifier":
			w.b.Relate(ontology.RelCalls, owner, grammar.Text(fn, w.src))
		case "field_expression":
			value := fn.ChildByFieldName("value")
			field := grammar.Field(fn, "field", w.src)
			switch {
			case value == nil:
			case value.Type() == "self":
				w.b.Relate(ontology.RelCalls, owner, field)
			case value.Type() == "identifier":
				w.b.Relate(ontology.RelCalls, owner, grammar.Text(value, w.src)+"."+field)
			default:
				w.visit(value, scope, owner, false)
			}
		case "generic_function":
			w.b.Relate(ontology.RelCalls, owner, grammar.Field(fn, "function", w.src))
		}
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.visit(args, scope, owner, false)
	}
}

// typeName strips generic arguments from a type.
func (w *walker) typeName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "generic_type":
		return w.typeName(n.ChildByFieldName("type"))
	case "type_identifier", "scoped_type_identifier", "identifier", "scoped_identifier":
		return grammar.Text(n, w.src)
	}
	return ""
}

// expandUse flattens a use tree into full paths.
func (w *walker) expandUse(n *sitter.Node, prefix string) []string {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "use_as_clause":
		return w.expandUse(n.ChildByFieldName("path"), prefix)
	case "scoped_use_list":
		path := joinUse(prefix, grammar.Field(n, "path", w.src))
		return w.expandUse(n.ChildByFieldName("list"), path)
	case "use_list":
		var out []string
		for _, c := range grammar.Named(n) {
			out = append(out, w.expandUse(c, prefix)...)
		}
		return out
	default:
		return []string{joinUse(prefix, grammar.Text(n, w.src))}
	}
}
