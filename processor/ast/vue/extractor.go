// Package vue extracts Vue single-file components. The component itself is
// the file's module symbol; script blocks are delegated to the javascript
// extractor and template tags become CHILD_COMPONENT edges.
package vue

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
	"github.com/c360studio/semgraph/processor/ast/javascript"
)

var (
	namePattern       = regexp.MustCompile(`\bname\s*:\s*['"]([A-Za-z0-9_\-]+)['"]`)
	componentsPattern = regexp.MustCompile(`\bcomponents\s*:\s*\{([^}]*)\}`)
)

// Extractor extracts code structure from .vue files.
type Extractor struct {
	ast.Base
	script *javascript.Extractor
}

// New creates a Vue extractor. It uses the grammar strategy when the
// javascript grammar is available.
func New(grammars grammar.Provider) *Extractor {
	return &Extractor{
		Base:   ast.NewBase(ontology.Vue(), grammars, grammar.JavaScript),
		script: javascript.New(grammars),
	}
}

// Parse extracts the component, its script symbols and its child components.
func (e *Extractor) Parse(ctx context.Context, content []byte, path string) *ast.ParseResult {
	if err := ctx.Err(); err != nil {
		return ast.Canceled(e.Ontology(), path, e.Strategy(), err)
	}

	sfc := split(content)
	b := ast.NewBuilder(e.Ontology(), path, e.Strategy())
	if sfc.err != nil {
		b.Warn(ast.KindSyntaxError, "component markup: %v", sfc.err)
	}
	component := b.Module(ontology.KindComponent, componentName(b.Path(), sfc.scripts), bytes.Count(content, []byte("\n"))+1)

	for _, s := range sfc.scripts {
		r := e.script.ParseScript(ctx, s.content, b.Path(), s.typescript)
		if ast.HasDiagnostic(r.Diagnostics, ast.KindCanceled) {
			return ast.Canceled(e.Ontology(), path, e.Strategy(), ctx.Err())
		}
		b.Adopt(r, s.lineOffset)
		for _, child := range registered(s.content) {
			b.Relate(ontology.RelChildComponent, component, child)
		}
	}
	for _, tag := range sfc.tags {
		b.Relate(ontology.RelChildComponent, component, pascalCase(tag))
	}
	return b.Result()
}

// componentName is the `name:` option of the first script that declares
// one, else the file stem.
func componentName(path string, scripts []script) string {
	for _, s := range scripts {
		if m := namePattern.FindSubmatch(s.content); m != nil {
			return string(m[1])
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// registered returns the components registered through the options API
// `components: { Foo, 'bar-baz': Baz }`.
func registered(src []byte) []string {
	var out []string
	for _, m := range componentsPattern.FindAllSubmatch(src, -1) {
		for _, entry := range strings.Split(string(m[1]), ",") {
			key := entry
			if i := strings.Index(entry, ":"); i >= 0 {
				key = entry[:i]
			}
			key = strings.Trim(strings.TrimSpace(key), `'"`)
			if key != "" {
				out = append(out, pascalCase(key))
			}
		}
	}
	return out
}

// pascalCase converts kebab-case tag names to the PascalCase component name.
func pascalCase(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}
	var sb strings.Builder
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
