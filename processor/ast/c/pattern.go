package c

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

var (
	includePattern   = regexp.MustCompile(`^\s*#\s*include\s+([<"][^>"]+[>"])`)
	definePattern    = regexp.MustCompile(`^\s*#\s*define\s+([A-Za-z_]\w*)`)
	functionPattern  = regexp.MustCompile(`^\s*[A-Za-z_][\w\s\*]*?[\s\*]([A-Za-z_]\w*)\s*\([^;]*\)\s*\{?\s*$`)
	aggregatePattern = regexp.MustCompile(`^\s*(?:typedef\s+)?(struct|union|enum)\s+([A-Za-z_]\w*)\s*\{`)
	typedefPattern   = regexp.MustCompile(`^\s*typedef\s+[^{;]*?\b([A-Za-z_]\w*)\s*;`)
	typedefClose     = regexp.MustCompile(`}\s*([A-Za-z_]\w*)\s*;\s*$`)
)

// scan extracts file-level declarations. Only lines at brace depth zero are
// considered, so statements inside function bodies are never mistaken for
// definitions.
func scan(b *ast.Builder, src []byte) {
	file := b.Module(ontology.KindFile, fileName(b.Path()), bytes.Count(src, []byte("\n"))+1)

	var (
		depth       int
		lineNo      int
		inComment   bool
		typedefOpen bool
	)
	add := func(kind ontology.NodeKind, name string) {
		id := b.Add(kind, name, nil, lineNo, lineNo)
		b.Relate(ontology.RelContains, file, id)
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if inComment {
			end := strings.Index(line, "*/")
			if end < 0 {
				continue
			}
			inComment = false
			line = line[end+2:]
		}
		line = stripComments(line, &inComment)

		if m := includePattern.FindStringSubmatch(line); m != nil {
			b.Relate(ontology.RelIncludes, file, includePath(m[1]))
			continue
		}
		if m := definePattern.FindStringSubmatch(line); m != nil {
			add(ontology.KindMacro, m[1])
			continue
		}

		if depth == 0 {
			switch {
			case aggregatePattern.MatchString(line):
				m := aggregatePattern.FindStringSubmatch(line)
				add(map[string]ontology.NodeKind{
					"struct": ontology.KindStruct,
					"union":  ontology.KindUnion,
					"enum":   ontology.KindEnum,
				}[m[1]], m[2])
				typedefOpen = strings.HasPrefix(strings.TrimSpace(line), "typedef")
			case typedefPattern.MatchString(line):
				add(ontology.KindTypedef, typedefPattern.FindStringSubmatch(line)[1])
			case strings.HasPrefix(strings.TrimSpace(line), "typedef") && strings.Contains(line, "{"):
				typedefOpen = true
			case functionPattern.MatchString(line):
				if name := functionPattern.FindStringSubmatch(line)[1]; !keywords[name] {
					add(ontology.KindFunction, name)
				}
			}
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			depth = 0
			if typedefOpen {
				if m := typedefClose.FindStringSubmatch(line); m != nil {
					add(ontology.KindTypedef, m[1])
					typedefOpen = false
				}
			}
		}
	}
}

// stripComments removes // and /* */ comments from line. An unterminated
// block comment sets *open.
func stripComments(line string, open *bool) string {
	var out strings.Builder
	for {
		lc := strings.Index(line, "//")
		bc := strings.Index(line, "/*")
		switch {
		case lc >= 0 && (bc < 0 || lc < bc):
			out.WriteString(line[:lc])
			return out.String()
		case bc >= 0:
			out.WriteString(line[:bc])
			rest := line[bc+2:]
			end := strings.Index(rest, "*/")
			if end < 0 {
				*open = true
				return out.String()
			}
			line = rest[end+2:]
		default:
			out.WriteString(line)
			return out.String()
		}
	}
}
