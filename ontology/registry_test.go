package ontology

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetUnknownLanguage(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(LanguagePython)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOntologyNotFound))
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register(New(LanguagePython, ".", []NodeKind{KindModule}, []RelationKind{RelImports}))
	r.Register(New(LanguagePython, "::", []NodeKind{KindModule}, []RelationKind{RelCalls}))

	o, err := r.Get(LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, "::", o.ScopeSeparator)
	assert.True(t, o.AllowsRelation(RelCalls))
	assert.False(t, o.AllowsRelation(RelImports))
	assert.Len(t, r.Languages(), 1)
}

func TestWithDefaults(t *testing.T) {
	r := WithDefaults()

	langs := r.Languages()
	for _, l := range SourceLanguages() {
		assert.Contains(t, langs, l)
	}
	assert.Contains(t, langs, LanguageFilesystem)
	assert.IsIncreasing(t, langs)

	tests := []struct {
		lang Language
		sep  string
		rel  RelationKind
	}{
		{LanguagePython, ".", RelImports},
		{LanguageJavaScript, ".", RelRequires},
		{LanguageRust, "::", RelImplements},
		{LanguageC, "::", RelIncludes},
		{LanguageBash, "::", RelSources},
		{LanguagePHP, "::", RelIncludes},
		{LanguageVue, ".", RelChildComponent},
		{LanguageFilesystem, "/", RelContains},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			o, err := r.Get(tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.sep, o.ScopeSeparator)
			assert.True(t, o.AllowsRelation(tt.rel))
		})
	}
}

func TestOntology_Functional(t *testing.T) {
	o := Python()

	assert.Equal(t, 1.0, o.Functional(RelCalls))
	assert.Equal(t, 0.95, o.Functional(RelRaises))
	assert.Equal(t, 0.2, o.Functional(RelImports))
	assert.Equal(t, UnknownFunctionalWeight, o.Functional(RelChildComponent))
	assert.Equal(t, UnknownFunctionalWeight, o.Functional("NOT_A_KIND"))

	tuned := o.WithFunctionalWeight(RelImports, 0.9)
	assert.Equal(t, 0.9, tuned.Functional(RelImports))
	assert.Equal(t, 0.2, o.Functional(RelImports), "original table must not change")
}

func TestVueOntologyCoversJavaScript(t *testing.T) {
	vue := Vue()
	for _, rel := range JavaScript().RelationKinds {
		assert.True(t, vue.AllowsRelation(rel), "vue should allow %s", rel)
	}
	assert.False(t, JavaScript().AllowsRelation(RelChildComponent))
}

func TestBuiltins_Described(t *testing.T) {
	r := WithDefaults()
	for _, lang := range r.Languages() {
		o, err := r.Get(lang)
		require.NoError(t, err)
		assert.NotEmpty(t, o.Description, lang)
	}
	assert.NotEmpty(t, Filesystem().Description)
	assert.Empty(t, New(LanguageRust, "::", nil, nil).Description)
}

func TestParseLanguage(t *testing.T) {
	l, ok := ParseLanguage("rust")
	assert.True(t, ok)
	assert.Equal(t, LanguageRust, l)

	_, ok = ParseLanguage("cobol")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := WithDefaults()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(Python())
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Get(LanguagePython)
			_ = r.Languages()
		}()
	}
	wg.Wait()
}
