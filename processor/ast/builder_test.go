package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgraph/ontology"
)

func TestSymbolID(t *testing.T) {
	assert.Equal(t, "a.py#", ModuleID("a.py"))
	assert.Equal(t, "a.py#foo", SymbolID("a.py", ".", nil, "foo"))
	assert.Equal(t, "a.py#Foo.bar", SymbolID("a.py", ".", []string{"Foo"}, "bar"))
	assert.Equal(t, "src/lib.rs#net::Client::send", SymbolID("src/lib.rs", "::", []string{"net", "Client"}, "send"))
}

func TestScopeDepth(t *testing.T) {
	tests := []struct {
		id   string
		sep  string
		want int
	}{
		{"pkg/mod.py#", ".", 0},
		{"pkg/mod.py#foo", ".", 0},
		{"pkg/mod.py#Foo.bar", ".", 1},
		{"pkg/mod.py#Foo.bar.inner", ".", 2},
		{"src/lib.rs#a::b::c::d", "::", 3},
		{"a::b::c", "::", 2},
		{"src/pkg/", "/", 2},
		{"anything", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScopeDepth(tt.id, tt.sep), tt.id)
	}
}

func TestBuilder_PatternStrategyWarns(t *testing.T) {
	b := NewBuilder(ontology.Python(), "m.py", StrategyPattern)
	mod := b.Module(ontology.KindModule, "m", 3)
	b.Add(ontology.KindFunction, "f", nil, 1, 2)
	b.Relate(ontology.RelContains, mod, "m.py#f")

	r := b.Result()
	assert.Equal(t, StrategyPattern, r.Strategy)
	assert.True(t, HasDiagnostic(r.Diagnostics, KindDegradedExtraction))
	assert.Equal(t, SeverityWarning, r.Diagnostics[0].Severity)
}

func TestBuilder_EmptyPathDefaults(t *testing.T) {
	b := NewBuilder(ontology.Bash(), "", StrategyGrammar)
	assert.Equal(t, DefaultPath, b.Path())
}

func TestBuilder_MalformedInput(t *testing.T) {
	b := NewBuilder(ontology.C(), "x.c", StrategyGrammar)
	b.Module(ontology.KindFile, "x.c", 1)

	r := b.Result()
	assert.Empty(t, r.Symbols)
	assert.Empty(t, r.Relations)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, KindMalformedInput, r.Diagnostics[0].Kind)
	assert.Equal(t, SeverityWarning, r.Diagnostics[0].Severity)
}

func TestBuilder_OntologyEnforcement(t *testing.T) {
	b := NewBuilder(ontology.Bash(), "run.sh", StrategyGrammar)
	mod := b.Module(ontology.KindScript, "run.sh", 10)
	fn := b.Add(ontology.KindFunction, "deploy", nil, 2, 5)
	b.Relate(ontology.RelContains, mod, fn)
	b.Relate(ontology.RelInstantiates, fn, "Thing")

	r := b.Result()
	require.Len(t, r.Relations, 1)
	assert.Equal(t, ontology.RelContains, r.Relations[0].Type)
	assert.True(t, HasDiagnostic(r.Diagnostics, KindOntologyViolation))
	for _, d := range r.Diagnostics {
		if d.Kind == KindOntologyViolation {
			assert.Equal(t, SeverityError, d.Severity)
		}
	}
}

func TestEnforce_DropsOutOfOntologyRelations(t *testing.T) {
	r := &ParseResult{
		Language: ontology.LanguageC,
		Path:     "a.c",
		Symbols: []Symbol{
			{ID: "a.c#", Kind: ontology.KindFile},
			{ID: "a.c#K", Kind: ontology.KindClass},
		},
		Relations: []Relation{
			{SourceID: "a.c#", TargetID: "stdio.h", Type: ontology.RelIncludes},
			{SourceID: "a.c#", TargetID: "x", Type: ontology.RelChildComponent},
		},
	}

	Enforce(ontology.C(), r)

	assert.Len(t, r.Symbols, 1)
	assert.Len(t, r.Relations, 1)
	assert.Len(t, r.Diagnostics, 2)
}

func TestBuilder_ResolvesLocalNames(t *testing.T) {
	b := NewBuilder(ontology.Python(), "svc.py", StrategyGrammar)
	mod := b.Module(ontology.KindModule, "svc", 20)
	run := b.Add(ontology.KindFunction, "run", nil, 1, 5)
	helper := b.Add(ontology.KindFunction, "helper", nil, 6, 9)
	b.Relate(ontology.RelContains, mod, run)
	b.Relate(ontology.RelContains, mod, helper)
	b.Relate(ontology.RelCalls, run, "helper")
	b.Relate(ontology.RelCalls, run, "print")
	b.Relate(ontology.RelImports, mod, "helper")

	r := b.Result()
	assert.Contains(t, r.Relations, Relation{SourceID: run, TargetID: helper, Type: ontology.RelCalls, Language: ontology.LanguagePython})
	assert.Contains(t, r.Relations, Relation{SourceID: run, TargetID: "print", Type: ontology.RelCalls, Language: ontology.LanguagePython})
	assert.Contains(t, r.Relations, Relation{SourceID: mod, TargetID: "helper", Type: ontology.RelImports, Language: ontology.LanguagePython})
}

func TestBuilder_DeduplicatesSymbolsAndRelations(t *testing.T) {
	b := NewBuilder(ontology.JavaScript(), "a.js", StrategyGrammar)
	mod := b.Module(ontology.KindModule, "a", 5)
	first := b.Add(ontology.KindFunction, "f", nil, 1, 2)
	second := b.Add(ontology.KindVariable, "f", nil, 3, 3)
	b.Relate(ontology.RelContains, mod, first)
	b.Relate(ontology.RelContains, mod, second)
	b.Relate(ontology.RelCalls, first, first)

	r := b.Result()
	assert.Equal(t, first, second)
	assert.Len(t, r.Symbols, 2)
	assert.Equal(t, ontology.KindFunction, r.Symbols[1].Kind)
	assert.Len(t, r.Relations, 1)
}

func TestNameIndex_AmbiguousNamesStayUnresolved(t *testing.T) {
	idx := NewNameIndex([]Symbol{
		{ID: "a.py#run", Name: "run", Language: ontology.LanguagePython},
		{ID: "b.py#run", Name: "run", Language: ontology.LanguagePython},
		{ID: "b.py#Job.start", Name: "start", Language: ontology.LanguagePython},
		{ID: "c.js#start", Name: "start", Language: ontology.LanguageJavaScript},
	})

	_, ok := idx.Resolve(ontology.LanguagePython, "run")
	assert.False(t, ok)

	id, ok := idx.Resolve(ontology.LanguagePython, "start")
	assert.True(t, ok)
	assert.Equal(t, "b.py#Job.start", id)

	id, ok = idx.Resolve(ontology.LanguagePython, "Job.start")
	assert.True(t, ok)
	assert.Equal(t, "b.py#Job.start", id)

	rels := []Relation{
		{SourceID: "c.js#", TargetID: "start", Type: ontology.RelCalls, Language: ontology.LanguageJavaScript},
		{SourceID: "a.py#", TargetID: "os", Type: ontology.RelImports, Language: ontology.LanguagePython},
	}
	assert.Equal(t, 1, idx.ResolveRelations(rels))
	assert.Equal(t, "c.js#start", rels[0].TargetID)
	assert.Equal(t, "os", rels[1].TargetID)
}
