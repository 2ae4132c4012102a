package grammar

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse builds a syntax tree for content. Parsers are not shared between
// calls, so concurrent callers are safe. The caller closes the tree.
func Parse(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	if lang == nil {
		return nil, fmt.Errorf("no grammar")
	}
	p := sitter.NewParser()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree, nil
}

// Text returns the source text covered by n.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// Field returns the text of n's child named field.
func Field(n *sitter.Node, field string, src []byte) string {
	if n == nil {
		return ""
	}
	return Text(n.ChildByFieldName(field), src)
}

// StartLine returns the 1-based first line of n.
func StartLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// EndLine returns the 1-based last line of n.
func EndLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// Named returns the named children of n.
func Named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// HasChildOfType reports whether any direct child (named or not) of n has type typ.
func HasChildOfType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return true
		}
	}
	return false
}

// FirstError returns the line of the first ERROR node under n.
func FirstError(n *sitter.Node) (int, bool) {
	if n == nil || !n.HasError() {
		return 0, false
	}
	if n.Type() == "ERROR" {
		return StartLine(n), true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if line, ok := FirstError(n.Child(i)); ok {
			return line, true
		}
	}
	// The error is a missing token on n itself.
	return StartLine(n), true
}
