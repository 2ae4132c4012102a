package php

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

var (
	namespacePattern = regexp.MustCompile(`^\s*namespace\s+([\w\\]+)\s*([;{])`)
	usePattern       = regexp.MustCompile(`^\s*use\s+(?:function\s+|const\s+)?\\?([\w\\]+)(?:\s+as\s+\w+)?\s*;`)
	includePattern   = regexp.MustCompile(`\b(?:include|include_once|require|require_once)\s*\(?\s*['"]([^'"]+)['"]`)
	classPattern     = regexp.MustCompile(`^\s*(?:(?:abstract|final|readonly)\s+)*(class|interface|trait)\s+([A-Za-z_]\w*)(?:\s+extends\s+([\w\\,\s]+?))?(?:\s+implements\s+([\w\\,\s]+?))?\s*\{?\s*$`)
	functionPattern  = regexp.MustCompile(`^\s*(?:(?:public|protected|private|static|abstract|final)\s+)*function\s+&?([A-Za-z_]\w*)\s*\(`)
)

// block is an open namespace or class-like body.
type block struct {
	depth int
	name  string
	id    string
	class bool
	open  bool
}

// scan extracts declarations line by line, tracking braces to attribute
// methods to their class. Calls are not recovered.
func scan(b *ast.Builder, src []byte) {
	file := b.Module(ontology.KindFile, fileName(b.Path()), bytes.Count(src, []byte("\n"))+1)

	var (
		stack     []block
		namespace *block
		depth     int
		lineNo    int
		inComment bool
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
		if strings.HasPrefix(trimmed, "/*") {
			inComment = !strings.Contains(trimmed, "*/")
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") {
			continue
		}

		for len(stack) > 0 && stack[len(stack)-1].open && depth <= stack[len(stack)-1].depth {
			stack = stack[:len(stack)-1]
		}
		var (
			scope []string
			owner = file
		)
		if namespace != nil {
			scope, owner = []string{namespace.name}, namespace.id
		}
		for _, blk := range stack {
			scope = append(scope, blk.name)
			owner = blk.id
		}
		inClass := len(stack) > 0 && stack[len(stack)-1].class && depth == stack[len(stack)-1].depth+1

		switch {
		case namespacePattern.MatchString(line):
			m := namespacePattern.FindStringSubmatch(line)
			id := b.Add(ontology.KindNamespace, m[1], nil, lineNo, lineNo)
			b.Relate(ontology.RelContains, file, id)
			if m[2] == "{" {
				stack = append(stack, block{depth: depth, name: m[1], id: id})
			} else {
				namespace = &block{name: m[1], id: id}
			}
		case usePattern.MatchString(line) && !inClass:
			b.Relate(ontology.RelUses, owner, usePattern.FindStringSubmatch(line)[1])
		case classPattern.MatchString(line):
			m := classPattern.FindStringSubmatch(line)
			kind := map[string]ontology.NodeKind{
				"class":     ontology.KindClass,
				"interface": ontology.KindInterface,
				"trait":     ontology.KindTrait,
			}[m[1]]
			id := b.Add(kind, m[2], scope, lineNo, lineNo)
			b.Relate(ontology.RelContains, owner, id)
			for _, base := range splitNames(m[3]) {
				b.Relate(ontology.RelExtends, id, base)
			}
			for _, iface := range splitNames(m[4]) {
				b.Relate(ontology.RelImplements, id, iface)
			}
			stack = append(stack, block{depth: depth, name: m[2], id: id, class: true})
		case functionPattern.MatchString(line):
			name := functionPattern.FindStringSubmatch(line)[1]
			kind := ontology.KindFunction
			if inClass {
				kind = ontology.KindMethod
			}
			id := b.Add(kind, name, scope, lineNo, lineNo)
			b.Relate(ontology.RelContains, owner, id)
		}
		for _, m := range includePattern.FindAllStringSubmatch(line, -1) {
			b.Relate(ontology.RelIncludes, file, m[1])
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		// A body opens on the declaration line or on a later one.
		if n := len(stack); n > 0 && depth > stack[n-1].depth {
			stack[n-1].open = true
		}
	}
}

func splitNames(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if name := qualified(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
