package bash

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

var (
	functionPattern = regexp.MustCompile(`^\s*(?:function\s+([A-Za-z_][\w-]*)\s*(?:\(\))?|([A-Za-z_][\w-]*)\s*\(\))\s*\{?`)
	sourcePattern   = regexp.MustCompile(`^\s*(?:source|\.)\s+([^\s;]+)`)
	variablePattern = regexp.MustCompile(`^(?:export\s+|readonly\s+|declare\s+(?:-\w+\s+)?)?([A-Za-z_]\w*)=`)
	heredocPattern  = regexp.MustCompile(`^<<-?[ \t]*(?:'([^']+)'|"([^"]+)"|\\?([A-Za-z_]\w*))`)
)

// scan extracts function definitions, sourced files and unindented variable
// assignments. Heredoc bodies are skipped.
func scan(b *ast.Builder, src []byte) {
	script := b.Module(ontology.KindScript, scriptName(b.Path()), bytes.Count(src, []byte("\n"))+1)

	var (
		lineNo  int
		heredoc string
	)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if heredoc != "" {
			if strings.TrimSpace(line) == heredoc {
				heredoc = ""
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		heredoc = heredocDelimiter(line)

		switch {
		case functionPattern.MatchString(line):
			m := functionPattern.FindStringSubmatch(line)
			name := m[1]
			if name == "" {
				name = m[2]
			}
			id := b.Add(ontology.KindFunction, name, nil, lineNo, lineNo)
			b.Relate(ontology.RelContains, script, id)
		case sourcePattern.MatchString(line):
			b.Relate(ontology.RelSources, script, unquote(sourcePattern.FindStringSubmatch(line)[1]))
		case variablePattern.MatchString(line):
			id := b.Add(ontology.KindVariable, variablePattern.FindStringSubmatch(line)[1], nil, lineNo, lineNo)
			b.Relate(ontology.RelContains, script, id)
		}
	}
}

// heredocDelimiter returns the word that terminates a heredoc opened on line,
// or "" if line opens none. Herestrings (<<<) and shifts inside arithmetic
// expansions are not heredocs.
func heredocDelimiter(line string) string {
	for i := 0; i+1 < len(line); i++ {
		if line[i] != '<' || line[i+1] != '<' {
			continue
		}
		if i+2 < len(line) && line[i+2] == '<' {
			i += 2
			continue
		}
		if strings.Count(line[:i], "((") > strings.Count(line[:i], "))") {
			continue
		}
		if m := heredocPattern.FindStringSubmatch(line[i:]); m != nil {
			return m[1] + m[2] + m[3]
		}
	}
	return ""
}
