package c

import (
	"strings"

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
	w.visit(root, w.file)
}

func (w *walker) visit(n *sitter.Node, owner string) {
	switch n.Type() {
	case "preproc_include":
		if target := includePath(grammar.Field(n, "path", w.src)); target != "" {
			w.b.Relate(ontology.RelIncludes, w.file, target)
		}
		return
	case "preproc_def", "preproc_function_def":
		w.declare(n, ontology.KindMacro, grammar.Field(n, "name", w.src))
		return
	case "function_definition":
		w.function(n)
		return
	case "struct_specifier":
		w.aggregate(n, ontology.KindStruct, owner)
		return
	case "union_specifier":
		w.aggregate(n, ontology.KindUnion, owner)
		return
	case "enum_specifier":
		w.aggregate(n, ontology.KindEnum, owner)
		return
	case "type_definition":
		if t := n.ChildByFieldName("type"); t != nil {
			w.visit(t, owner)
		}
		for _, d := range declarators(n) {
			w.declare(n, ontology.KindTypedef, w.declaratorName(d))
		}
		return
	case "call_expression":
		w.call(n, owner)
		return
	}

	for _, c := range grammar.Named(n) {
		w.visit(c, owner)
	}
}

func (w *walker) declare(n *sitter.Node, kind ontology.NodeKind, name string) string {
	if name == "" {
		return ""
	}
	id := w.b.Add(kind, name, nil, grammar.StartLine(n), grammar.EndLine(n))
	w.b.Relate(ontology.RelContains, w.file, id)
	return id
}

func (w *walker) function(n *sitter.Node) {
	id := w.declare(n, ontology.KindFunction, w.declaratorName(n.ChildByFieldName("declarator")))
	if id == "" {
		return
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.visit(body, id)
	}
}

// aggregate declares a struct, union or enum that has a body. Bare references
// such as `struct point p;` are not definitions.
func (w *walker) aggregate(n *sitter.Node, kind ontology.NodeKind, owner string) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	w.declare(n, kind, grammar.Field(n, "name", w.src))
	w.visit(body, owner)
}

func (w *walker) call(n *sitter.Node, owner string) {
	if fn := n.ChildByFieldName("function"); fn != nil {
		switch fn.Type() {
		case "identifier":
			if name := grammar.Text(fn, w.src); !keywords[name] {
				w.b.Relate(ontology.RelCalls, owner, name)
			}
		case "field_expression":
			w.b.Relate(ontology.RelCalls, owner, grammar.Field(fn, "field", w.src))
		case "parenthesized_expression":
			w.visit(fn, owner)
		}
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.visit(args, owner)
	}
}

// declaratorName unwraps pointer, array and function declarators down to the
// declared identifier.
func (w *walker) declaratorName(n *sitter.Node) string {
	for n != nil {
		switch n.Type() {
		case "identifier", "type_identifier", "field_identifier":
			return grammar.Text(n, w.src)
		case "pointer_declarator", "function_declarator", "array_declarator",
			"parenthesized_declarator", "attributed_declarator", "init_declarator":
			next := n.ChildByFieldName("declarator")
			if next == nil && n.NamedChildCount() > 0 {
				next = n.NamedChild(0)
			}
			n = next
		default:
			return ""
		}
	}
	return ""
}

// declarators returns every declarator of a typedef; `typedef int a, *b;`
// declares two names.
func declarators(n *sitter.Node) []*sitter.Node {
	typ := n.ChildByFieldName("type")
	var out []*sitter.Node
	for _, c := range grammar.Named(n) {
		if c.Type() == "type_qualifier" || c.Type() == "comment" {
			continue
		}
		if typ != nil && c.StartByte() == typ.StartByte() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func includePath(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"<>`)
}
