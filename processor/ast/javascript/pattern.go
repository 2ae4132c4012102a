package javascript

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

var (
	importPattern     = regexp.MustCompile(`^\s*import\s+(?:.+?\s+from\s+)?['"]([^'"]+)['"]`)
	importTailPattern = regexp.MustCompile(`^\s*}\s*from\s+['"]([^'"]+)['"]`)
	requirePattern    = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	functionPattern   = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	classPattern      = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)(?:\s+extends\s+([A-Za-z_$][\w$.]*))?`)
	arrowPattern      = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`)
)

// Scan extracts imports, requires and top-level declarations line by line.
// Declarations are only taken at brace depth zero; nesting is not recovered,
// so every symbol is attributed to the module.
func Scan(b *ast.Builder, src []byte) {
	module := b.ModuleID()
	if module == "" {
		module = b.Module(ontology.KindModule, moduleName(b.Path()), bytes.Count(src, []byte("\n"))+1)
	}

	var (
		inComment bool
		lineNo    int
		depth     int
	)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if inComment {
			if strings.Contains(trimmed, "*/") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "/*") {
			inComment = !strings.Contains(trimmed, "*/")
			continue
		}

		if m := importPattern.FindStringSubmatch(line); m != nil {
			b.Relate(ontology.RelImports, module, m[1])
		} else if m := importTailPattern.FindStringSubmatch(line); m != nil {
			b.Relate(ontology.RelImports, module, m[1])
		}
		for _, m := range requirePattern.FindAllStringSubmatch(line, -1) {
			b.Relate(ontology.RelRequires, module, m[1])
		}

		if depth == 0 {
			declare(b, module, line, lineNo)
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}
}

func declare(b *ast.Builder, module, line string, lineNo int) {
	switch {
	case functionPattern.MatchString(line):
		m := functionPattern.FindStringSubmatch(line)
		id := b.Add(ontology.KindFunction, m[1], nil, lineNo, lineNo)
		b.Relate(ontology.RelContains, module, id)
	case classPattern.MatchString(line):
		m := classPattern.FindStringSubmatch(line)
		id := b.Add(ontology.KindClass, m[1], nil, lineNo, lineNo)
		b.Relate(ontology.RelContains, module, id)
		if m[2] != "" {
			b.Relate(ontology.RelExtends, id, m[2])
		}
	case arrowPattern.MatchString(line):
		m := arrowPattern.FindStringSubmatch(line)
		id := b.Add(ontology.KindFunction, m[1], nil, lineNo, lineNo)
		b.Relate(ontology.RelContains, module, id)
	}
}
