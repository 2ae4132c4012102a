package javascript

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

var functionValues = map[string]bool{
	"arrow_function":      true,
	"function":            true,
	"function_expression": true,
	"generator_function":  true,
}

type walker struct {
	b      *ast.Builder
	src    []byte
	module string
}

// Walk extracts from a javascript or typescript syntax tree. It is exported
// for single-file component extractors that embed script blocks.
func Walk(b *ast.Builder, root *sitter.Node, src []byte) {
	w := &walker{b: b, src: src}
	w.module = b.ModuleID()
	if w.module == "" {
		w.module = b.Module(ontology.KindModule, moduleName(b.Path()), grammar.EndLine(root))
	}
	for _, child := range grammar.Named(root) {
		w.visit(child, nil, w.module)
	}
}

func (w *walker) visit(n *sitter.Node, scope []string, owner string) {
	switch n.Type() {
	case "import_statement":
		if src := n.ChildByFieldName("source"); src != nil {
			w.b.Relate(ontology.RelImports, w.module, unquote(grammar.Text(src, w.src)))
		}
		return
	case "function_declaration", "generator_function_declaration":
		w.function(n, grammar.Field(n, "name", w.src), ontology.KindFunction, scope, owner)
		return
	case "method_definition":
		w.function(n, grammar.Field(n, "name", w.src), ontology.KindMethod, scope, owner)
		return
	case "class_declaration", "class":
		w.class(n, grammar.Field(n, "name", w.src), scope, owner)
		return
	case "variable_declarator":
		if w.declarator(n, scope, owner) {
			return
		}
	case "call_expression":
		w.call(n, scope, owner, ontology.RelCalls)
		return
	case "new_expression":
		w.construct(n, scope, owner, ontology.RelInstantiates)
		return
	case "await_expression":
		if c := firstNamed(n); c != nil && c.Type() == "call_expression" {
			w.call(c, scope, owner, ontology.RelAsyncAwaits)
			return
		}
	case "throw_statement":
		if c := firstNamed(n); c != nil {
			switch c.Type() {
			case "new_expression":
				w.construct(c, scope, owner, ontology.RelRaises)
				return
			case "identifier":
				w.b.Relate(ontology.RelRaises, owner, grammar.Text(c, w.src))
				return
			}
		}
	}

	for _, c := range grammar.Named(n) {
		w.visit(c, scope, owner)
	}
}

func (w *walker) function(n *sitter.Node, name string, kind ontology.NodeKind, scope []string, owner string) {
	body := n.ChildByFieldName("body")
	if name == "" || !isName(name) {
		if body != nil {
			w.visit(body, scope, owner)
		}
		return
	}
	id := w.b.Add(kind, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)

	if params := n.ChildByFieldName("parameters"); params != nil {
		w.visit(params, scope, owner)
	}
	if body != nil {
		w.visit(body, append(slices.Clone(scope), name), id)
	}
}

func (w *walker) class(n *sitter.Node, name string, scope []string, owner string) {
	body := n.ChildByFieldName("body")
	if name == "" {
		if body != nil {
			w.visit(body, scope, owner)
		}
		return
	}
	id := w.b.Add(ontology.KindClass, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)

	for _, c := range grammar.Named(n) {
		if c.Type() == "class_heritage" {
			for _, base := range w.heritage(c) {
				w.b.Relate(ontology.RelExtends, id, base)
			}
		}
	}

	if body != nil {
		inner := append(slices.Clone(scope), name)
		for _, member := range grammar.Named(body) {
			w.visit(member, inner, id)
		}
	}
}

// heritage returns the extended class names. JavaScript puts the expression
// directly under class_heritage; TypeScript wraps it in an extends_clause.
func (w *walker) heritage(n *sitter.Node) []string {
	var names []string
	for _, c := range grammar.Named(n) {
		switch c.Type() {
		case "extends_clause":
			value := c.ChildByFieldName("value")
			if value == nil {
				value = firstNamed(c)
			}
			if name := w.callee(value); name != "" {
				names = append(names, name)
			}
		case "implements_clause":
		default:
			if name := w.callee(c); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// declarator handles `const x = ...`. Function and class values become named
// symbols; other module-level bindings become variables.
func (w *walker) declarator(n *sitter.Node, scope []string, owner string) bool {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil || nameNode.Type() != "identifier" {
		return false
	}
	name := grammar.Text(nameNode, w.src)
	value := n.ChildByFieldName("value")

	if value != nil {
		switch {
		case functionValues[value.Type()]:
			w.function(value, name, ontology.KindFunction, scope, owner)
			return true
		case value.Type() == "class":
			className := grammar.Field(value, "name", w.src)
			if className == "" {
				className = name
			}
			w.class(value, className, scope, owner)
			return true
		}
	}

	if owner == w.module && len(scope) == 0 {
		id := w.b.Add(ontology.KindVariable, name, nil, grammar.StartLine(n), grammar.EndLine(n))
		w.b.Relate(ontology.RelContains, w.module, id)
	}
	return false
}

func (w *walker) call(n *sitter.Node, scope []string, owner string, kind ontology.RelationKind) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	switch {
	case fn != nil && fn.Type() == "import":
		if target := firstString(args, w.src); target != "" {
			w.b.Relate(ontology.RelImports, owner, target)
		}
	case fn != nil && fn.Type() == "identifier" && grammar.Text(fn, w.src) == "require":
		if target := firstString(args, w.src); target != "" {
			w.b.Relate(ontology.RelRequires, owner, target)
		}
	default:
		w.b.Relate(kind, owner, w.callee(fn))
		if fn != nil && fn.Type() == "member_expression" {
			if obj := fn.ChildByFieldName("object"); obj != nil {
				w.visit(obj, scope, owner)
			}
		}
	}

	if args != nil {
		w.visit(args, scope, owner)
	}
}

func (w *walker) construct(n *sitter.Node, scope []string, owner string, kind ontology.RelationKind) {
	w.b.Relate(kind, owner, w.callee(n.ChildByFieldName("constructor")))
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.visit(args, scope, owner)
	}
}

// callee returns the dotted name an expression refers to, without a leading
// this receiver. Anything that is not a plain name yields "".
func (w *walker) callee(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "member_expression", "type_identifier", "nested_identifier":
	default:
		return ""
	}
	name := strings.TrimPrefix(grammar.Text(n, w.src), "this.")
	if !isName(name) {
		return ""
	}
	return name
}

func firstString(args *sitter.Node, src []byte) string {
	first := firstNamed(args)
	if first == nil {
		return ""
	}
	switch first.Type() {
	case "string", "template_string":
		return unquote(grammar.Text(first, src))
	}
	return ""
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}
