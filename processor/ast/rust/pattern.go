package rust

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

var (
	usePattern  = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([A-Za-z0-9_:{}\*,\s]+);`)
	fnPattern   = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_]\w*)`)
	itemPattern = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(struct|enum|trait|mod)\s+([A-Za-z_]\w*)`)
	implPattern = regexp.MustCompile(`^\s*(?:unsafe\s+)?impl(?:<[^>]*>)?\s+([\w:]+)(?:<[^>]*>)?(?:\s+for\s+([\w:]+))?`)
)

// block is an open mod, trait or impl body.
type block struct {
	depth int
	name  string
	id    string
	impl  bool
}

// scan extracts items line by line, tracking braces to recover mod, trait
// and impl nesting.
func scan(b *ast.Builder, src []byte) {
	module := b.Module(ontology.KindModule, crateModule(b.Path()), bytes.Count(src, []byte("\n"))+1)

	var (
		stack  []block
		depth  int
		lineNo int
	)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}

		for len(stack) > 0 && depth <= stack[len(stack)-1].depth {
			stack = stack[:len(stack)-1]
		}
		owner := module
		var scope []string
		inImpl := false
		for _, blk := range stack {
			scope = append(scope, blk.name)
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			inImpl = top.impl
			if top.id != "" {
				owner = top.id
			}
		}
		// Only items directly inside a tracked block are attributed to it.
		direct := len(stack) == 0 && depth == 0 || len(stack) > 0 && depth == stack[len(stack)-1].depth+1

		switch {
		case usePattern.MatchString(line):
			m := usePattern.FindStringSubmatch(line)
			for _, target := range expandUseText(m[1]) {
				b.Relate(ontology.RelImports, owner, target)
			}
		case implPattern.MatchString(line) && direct:
			m := implPattern.FindStringSubmatch(line)
			typeName := m[1]
			if m[2] != "" {
				typeName = m[2]
				b.Relate(ontology.RelImplements, m[2], m[1])
			}
			if strings.Contains(line, "{") {
				stack = append(stack, block{depth: depth, name: typeName, id: owner, impl: true})
			}
		case itemPattern.MatchString(line) && direct:
			m := itemPattern.FindStringSubmatch(line)
			kind := map[string]ontology.NodeKind{
				"struct": ontology.KindStruct,
				"enum":   ontology.KindEnum,
				"trait":  ontology.KindTrait,
				"mod":    ontology.KindMod,
			}[m[1]]
			id := b.Add(kind, m[2], scope, lineNo, lineNo)
			b.Relate(ontology.RelContains, owner, id)
			if (kind == ontology.KindMod || kind == ontology.KindTrait) && strings.Contains(line, "{") {
				stack = append(stack, block{depth: depth, name: m[2], id: id, impl: kind == ontology.KindTrait})
			}
		case fnPattern.MatchString(line) && direct:
			m := fnPattern.FindStringSubmatch(line)
			kind := ontology.KindFunction
			if inImpl {
				kind = ontology.KindMethod
			}
			id := b.Add(kind, m[1], scope, lineNo, lineNo)
			b.Relate(ontology.RelContains, owner, id)
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}
}

// expandUseText flattens the text of a use tree such as `a::{b, c::d}`.
func expandUseText(tree string) []string {
	tree = strings.Join(strings.Fields(tree), "")
	open := strings.Index(tree, "{")
	if open < 0 {
		if tree == "" {
			return nil
		}
		return []string{tree}
	}
	closing := strings.LastIndex(tree, "}")
	if closing < open {
		return nil
	}
	prefix := strings.TrimSuffix(tree[:open], "::")

	var out []string
	for _, item := range splitTopLevel(tree[open+1 : closing]) {
		for _, sub := range expandUseText(item) {
			out = append(out, joinUse(prefix, sub))
		}
	}
	return out
}

// splitTopLevel splits s on commas that are not inside braces.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				if p := s[start:i]; p != "" {
					parts = append(parts, p)
				}
				start = i + 1
			}
		}
	}
	if p := s[start:]; p != "" {
		parts = append(parts, p)
	}
	return parts
}
