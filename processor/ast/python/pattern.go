package python

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

var (
	defPattern      = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	classPattern    = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)
	importPattern   = regexp.MustCompile(`^import\s+(.+)$`)
	fromPattern     = regexp.MustCompile(`^from\s+(\.*[\w.]*)\s+import\s+`)
	variablePattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?::[^=]+)?=[^=]`)
)

// frame is an open def or class block.
type frame struct {
	indent int
	name   string
	id     string
	class  bool
}

// scan extracts definitions, imports and class bases line by line, using
// indentation to recover nesting.
func scan(b *ast.Builder, src []byte) {
	module := b.Module(ontology.KindModule, moduleName(b.Path()), bytes.Count(src, []byte("\n"))+1)

	var (
		stack    []frame
		inString string
		lineNo   int
	)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		if inString != "" {
			if strings.Count(raw, inString)%2 == 1 {
				inString = ""
			}
			continue
		}

		line := strings.TrimLeft(raw, " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		indent := len(raw) - len(line)

		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		owner := module
		scope := make([]string, 0, len(stack))
		for _, f := range stack {
			scope = append(scope, f.name)
		}
		if len(stack) > 0 {
			owner = stack[len(stack)-1].id
		}

		switch {
		case classPattern.MatchString(line):
			m := classPattern.FindStringSubmatch(line)
			id := b.Add(ontology.KindClass, m[1], scope, lineNo, lineNo)
			b.Relate(ontology.RelContains, owner, id)
			for _, base := range strings.Split(m[2], ",") {
				base = strings.TrimSpace(base)
				if isDottedName(base) {
					b.Relate(ontology.RelExtends, id, base)
				}
			}
			stack = append(stack, frame{indent: indent, name: m[1], id: id, class: true})

		case defPattern.MatchString(line):
			m := defPattern.FindStringSubmatch(line)
			kind := ontology.KindFunction
			if len(stack) > 0 && stack[len(stack)-1].class {
				kind = ontology.KindMethod
			}
			id := b.Add(kind, m[1], scope, lineNo, lineNo)
			b.Relate(ontology.RelContains, owner, id)
			stack = append(stack, frame{indent: indent, name: m[1], id: id})

		case importPattern.MatchString(line):
			m := importPattern.FindStringSubmatch(line)
			for _, part := range strings.Split(stripComment(m[1]), ",") {
				name, _, _ := strings.Cut(strings.TrimSpace(part), " ")
				if isDottedName(name) {
					b.Relate(ontology.RelImports, owner, name)
				}
			}

		case fromPattern.MatchString(line):
			m := fromPattern.FindStringSubmatch(line)
			if strings.Trim(m[1], ".") == "" || isDottedName(strings.TrimLeft(m[1], ".")) {
				b.Relate(ontology.RelImports, owner, m[1])
			}

		case indent == 0 && variablePattern.MatchString(line):
			m := variablePattern.FindStringSubmatch(line)
			id := b.Add(ontology.KindVariable, m[1], nil, lineNo, lineNo)
			b.Relate(ontology.RelContains, module, id)
		}

		inString = openTripleQuote(line)
	}
}

// openTripleQuote returns the delimiter of a triple-quoted string left open
// at the end of line.
func openTripleQuote(line string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.Count(line, q)%2 == 1 {
			return q
		}
	}
	return ""
}

func stripComment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		return s[:i]
	}
	return s
}
