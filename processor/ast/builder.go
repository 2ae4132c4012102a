package ast

import (
	"strings"

	"github.com/c360studio/semgraph/ontology"
)

// Builder accumulates the symbols and relations of one file and produces a
// finished ParseResult. It is not safe for concurrent use.
type Builder struct {
	ont      ontology.Ontology
	path     string
	strategy Strategy

	symbols   []Symbol
	symbolIdx map[string]int
	relations []Relation
	relSeen   map[Relation]struct{}
	diags     []Diagnostic

	module string
}

// NewBuilder starts a result for path. A pattern strategy is reported up front.
func NewBuilder(ont ontology.Ontology, path string, strategy Strategy) *Builder {
	if path == "" {
		path = DefaultPath
	}
	b := &Builder{
		ont:       ont,
		path:      path,
		strategy:  strategy,
		symbolIdx: make(map[string]int),
		relSeen:   make(map[Relation]struct{}),
	}
	if strategy == StrategyPattern {
		b.Warn(KindDegradedExtraction, "%s grammar unavailable; pattern extraction may miss constructs", ont.Language)
	}
	return b
}

// Path returns the path symbols are attributed to.
func (b *Builder) Path() string { return b.path }

// Separator returns the ontology's scope separator.
func (b *Builder) Separator() string { return b.ont.ScopeSeparator }

// Module adds the file-level symbol and returns its ID.
func (b *Builder) Module(kind ontology.NodeKind, name string, endLine int) string {
	id := ModuleID(b.path)
	b.put(Symbol{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Language:  b.ont.Language,
		Path:      b.path,
		StartLine: 1,
		EndLine:   endLine,
	})
	b.module = id
	return id
}

// ModuleID returns the ID of the module symbol, or "" before Module is called.
func (b *Builder) ModuleID() string { return b.module }

// Add records a symbol named name nested in scope and returns its ID. Adding
// the same ID twice keeps the first symbol.
func (b *Builder) Add(kind ontology.NodeKind, name string, scope []string, startLine, endLine int) string {
	id := SymbolID(b.path, b.ont.ScopeSeparator, scope, name)
	var sp []string
	if len(scope) > 0 {
		sp = append([]string(nil), scope...)
	}
	b.put(Symbol{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Language:  b.ont.Language,
		Path:      b.path,
		ScopePath: sp,
		StartLine: startLine,
		EndLine:   endLine,
	})
	return id
}

func (b *Builder) put(s Symbol) {
	if _, ok := b.symbolIdx[s.ID]; ok {
		return
	}
	b.symbolIdx[s.ID] = len(b.symbols)
	b.symbols = append(b.symbols, s)
}

// Has reports whether a symbol with id was added.
func (b *Builder) Has(id string) bool {
	_, ok := b.symbolIdx[id]
	return ok
}

// Relate records an edge. Empty endpoints, self edges and exact duplicates are ignored.
func (b *Builder) Relate(kind ontology.RelationKind, source, target string) {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" || source == target {
		return
	}
	r := Relation{SourceID: source, TargetID: target, Type: kind, Language: b.ont.Language}
	if _, ok := b.relSeen[r]; ok {
		return
	}
	b.relSeen[r] = struct{}{}
	b.relations = append(b.relations, r)
}

// Adopt merges a result extracted from an embedded block of the same file,
// such as the script of a single-file component. Symbols and relations take
// the builder's language, lines shift by lineOffset, and the embedded module
// symbol folds into the builder's own module symbol.
func (b *Builder) Adopt(r *ParseResult, lineOffset int) {
	if r == nil {
		return
	}
	embeddedModule := ModuleID(r.Path)
	for _, s := range r.Symbols {
		if s.ID == embeddedModule {
			continue
		}
		s.Language = b.ont.Language
		s.Path = b.path
		if s.StartLine > 0 {
			s.StartLine += lineOffset
		}
		if s.EndLine > 0 {
			s.EndLine += lineOffset
		}
		b.put(s)
	}
	for _, rel := range r.Relations {
		if rel.SourceID == embeddedModule && b.module != "" {
			rel.SourceID = b.module
		}
		b.Relate(rel.Type, rel.SourceID, rel.TargetID)
	}
	for _, d := range r.Diagnostics {
		switch d.Kind {
		case KindDegradedExtraction, KindMalformedInput:
			continue
		}
		d.Path = b.path
		b.diags = append(b.diags, d)
	}
}

// Warn records a warning diagnostic.
func (b *Builder) Warn(kind DiagnosticKind, format string, args ...any) {
	b.diags = append(b.diags, Warning(kind, b.path, format, args...))
}

// Result resolves same-file names, enforces the ontology and applies the
// malformed-input rule.
func (b *Builder) Result() *ParseResult {
	relations := make([]Relation, len(b.relations))
	copy(relations, b.relations)
	NewNameIndex(b.symbols).ResolveRelations(relations)

	r := &ParseResult{
		Language:    b.ont.Language,
		Path:        b.path,
		Strategy:    b.strategy,
		Symbols:     append([]Symbol(nil), b.symbols...),
		Relations:   dedupe(relations),
		Diagnostics: append([]Diagnostic(nil), b.diags...),
	}
	Enforce(b.ont, r)

	if !b.recognized(r) {
		r.Symbols = nil
		r.Relations = nil
		r.Diagnostics = append(r.Diagnostics, Warning(KindMalformedInput, b.path, "no recognizable %s structure", b.ont.Language))
	}
	if r.Symbols == nil {
		r.Symbols = []Symbol{}
	}
	if r.Relations == nil {
		r.Relations = []Relation{}
	}
	return r
}

// recognized is false when the only thing found is the module symbol itself.
func (b *Builder) recognized(r *ParseResult) bool {
	if len(r.Relations) > 0 {
		return true
	}
	for _, s := range r.Symbols {
		if s.ID != b.module {
			return true
		}
	}
	return false
}

func dedupe(relations []Relation) []Relation {
	seen := make(map[Relation]struct{}, len(relations))
	out := relations[:0]
	for _, r := range relations {
		if r.SourceID == r.TargetID {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
