package python

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

type walker struct {
	b       *ast.Builder
	src     []byte
	module  string
	classes map[string]bool
}

func walk(b *ast.Builder, root *sitter.Node, src []byte) {
	w := &walker{
		b:       b,
		src:     src,
		classes: make(map[string]bool),
	}
	w.collectClasses(root)
	w.module = b.Module(ontology.KindModule, moduleName(b.Path()), grammar.EndLine(root))

	for _, child := range grammar.Named(root) {
		w.visit(child, nil, w.module, false)
	}
}

// collectClasses records every class name so calls to them read as instantiation.
func (w *walker) collectClasses(n *sitter.Node) {
	if n.Type() == "class_definition" {
		if name := grammar.Field(n, "name", w.src); name != "" {
			w.classes[name] = true
		}
	}
	for _, c := range grammar.Named(n) {
		w.collectClasses(c)
	}
}

// visit dispatches on node type. owner is the ID of the innermost enclosing
// symbol; inClass is true only for statements directly in a class body.
func (w *walker) visit(n *sitter.Node, scope []string, owner string, inClass bool) {
	switch n.Type() {
	case "import_statement", "import_from_statement":
		w.imports(n, owner)
		return
	case "class_definition":
		w.class(n, scope, owner)
		return
	case "function_definition":
		w.function(n, scope, owner, inClass)
		return
	case "decorated_definition":
		w.decorated(n, scope, owner, inClass)
		return
	case "call":
		w.call(n, scope, owner, ontology.RelCalls)
		return
	case "await":
		if c := firstNamed(n); c != nil && c.Type() == "call" {
			w.call(c, scope, owner, ontology.RelAsyncAwaits)
			return
		}
	case "yield":
		if c := firstNamed(n); c != nil && c.Type() == "call" {
			w.call(c, scope, owner, ontology.RelYields)
			return
		}
	case "raise_statement":
		w.raise(n, scope, owner)
		return
	case "except_clause":
		w.except(n, scope, owner)
		return
	case "with_item":
		w.withItem(n, scope, owner)
		return
	case "assignment":
		if owner == w.module && !inClass && len(scope) == 0 {
			w.variable(n)
		}
	}

	for _, c := range grammar.Named(n) {
		w.visit(c, scope, owner, false)
	}
}

func (w *walker) imports(n *sitter.Node, owner string) {
	switch n.Type() {
	case "import_statement":
		for _, c := range grammar.Named(n) {
			switch c.Type() {
			case "dotted_name":
				w.b.Relate(ontology.RelImports, owner, grammar.Text(c, w.src))
			case "aliased_import":
				w.b.Relate(ontology.RelImports, owner, grammar.Field(c, "name", w.src))
			}
		}
	case "import_from_statement":
		w.b.Relate(ontology.RelImports, owner, grammar.Field(n, "module_name", w.src))
	}
}

func (w *walker) class(n *sitter.Node, scope []string, owner string) string {
	name := grammar.Field(n, "name", w.src)
	if name == "" {
		return ""
	}
	id := w.b.Add(ontology.KindClass, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)

	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range grammar.Named(supers) {
			switch arg.Type() {
			case "identifier", "attribute":
				w.b.Relate(ontology.RelExtends, id, grammar.Text(arg, w.src))
			}
		}
	}

	inner := append(slices.Clone(scope), name)
	if body := n.ChildByFieldName("body"); body != nil {
		for _, c := range grammar.Named(body) {
			w.visit(c, inner, id, true)
		}
	}
	return id
}

func (w *walker) function(n *sitter.Node, scope []string, owner string, inClass bool) string {
	name := grammar.Field(n, "name", w.src)
	if name == "" {
		return ""
	}
	kind := ontology.KindFunction
	if inClass {
		kind = ontology.KindMethod
	}
	id := w.b.Add(kind, name, scope, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, owner, id)

	inner := append(slices.Clone(scope), name)
	if body := n.ChildByFieldName("body"); body != nil {
		for _, c := range grammar.Named(body) {
			w.visit(c, inner, id, false)
		}
	}
	return id
}

func (w *walker) decorated(n *sitter.Node, scope []string, owner string, inClass bool) {
	def := n.ChildByFieldName("definition")
	if def == nil {
		return
	}

	var id string
	switch def.Type() {
	case "class_definition":
		id = w.class(def, scope, owner)
	case "function_definition":
		id = w.function(def, scope, owner, inClass)
	}
	if id == "" {
		return
	}

	for _, d := range grammar.Named(n) {
		if d.Type() != "decorator" {
			continue
		}
		expr := firstNamed(d)
		if expr == nil {
			continue
		}
		if expr.Type() == "call" {
			w.b.Relate(ontology.RelDecorates, w.callee(expr.ChildByFieldName("function")), id)
			if args := expr.ChildByFieldName("arguments"); args != nil {
				w.visit(args, scope, owner, false)
			}
			continue
		}
		w.b.Relate(ontology.RelDecorates, w.callee(expr), id)
	}
}

// call records an edge of kind from owner to the callee and keeps walking
// the receiver and arguments for nested calls.
func (w *walker) call(n *sitter.Node, scope []string, owner string, kind ontology.RelationKind) {
	fn := n.ChildByFieldName("function")
	if name := w.callee(fn); name != "" {
		if kind == ontology.RelCalls && w.isClass(name) {
			kind = ontology.RelInstantiates
		}
		w.b.Relate(kind, owner, name)
	}

	if fn != nil && fn.Type() == "attribute" {
		if obj := fn.ChildByFieldName("object"); obj != nil {
			w.visit(obj, scope, owner, false)
		}
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.visit(args, scope, owner, false)
	}
}

func (w *walker) raise(n *sitter.Node, scope []string, owner string) {
	expr := firstNamed(n)
	if expr == nil {
		return
	}
	switch expr.Type() {
	case "call":
		w.call(expr, scope, owner, ontology.RelRaises)
	case "identifier", "attribute":
		w.b.Relate(ontology.RelRaises, owner, w.callee(expr))
	default:
		w.visit(expr, scope, owner, false)
	}
}

func (w *walker) except(n *sitter.Node, scope []string, owner string) {
	for i, c := range grammar.Named(n) {
		if c.Type() == "block" {
			w.visit(c, scope, owner, false)
			continue
		}
		if i == 0 {
			for _, name := range w.exceptionNames(c) {
				w.b.Relate(ontology.RelCatches, owner, name)
			}
		}
	}
}

func (w *walker) exceptionNames(n *sitter.Node) []string {
	switch n.Type() {
	case "identifier", "attribute":
		return []string{grammar.Text(n, w.src)}
	case "as_pattern":
		if c := firstNamed(n); c != nil {
			return w.exceptionNames(c)
		}
	case "tuple", "parenthesized_expression":
		var names []string
		for _, c := range grammar.Named(n) {
			names = append(names, w.exceptionNames(c)...)
		}
		return names
	}
	return nil
}

func (w *walker) withItem(n *sitter.Node, scope []string, owner string) {
	value := n.ChildByFieldName("value")
	if value == nil {
		value = firstNamed(n)
	}
	if value != nil && value.Type() == "as_pattern" {
		value = firstNamed(value)
	}
	if value == nil {
		return
	}
	if value.Type() == "call" {
		w.call(value, scope, owner, ontology.RelWithContext)
		return
	}
	w.visit(value, scope, owner, false)
}

func (w *walker) variable(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	id := w.b.Add(ontology.KindVariable, grammar.Text(left, w.src), nil, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, w.module, id)
}

// callee returns the dotted name an expression refers to, without a leading
// self or cls receiver. Anything that is not a plain name yields "".
func (w *walker) callee(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "attribute":
	default:
		return ""
	}
	name := grammar.Text(n, w.src)
	name = strings.TrimPrefix(name, "self.")
	name = strings.TrimPrefix(name, "cls.")
	if !isDottedName(name) {
		return ""
	}
	return name
}

func (w *walker) isClass(name string) bool {
	return w.classes[name] || isCapWords(name)
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}
