package languages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

func TestWithDefaults_AllLanguages(t *testing.T) {
	r := WithDefaults(grammar.Builtin())

	assert.ElementsMatch(t, ontology.SourceLanguages(), r.Languages())
	for _, lang := range ontology.SourceLanguages() {
		e, err := r.Get(lang)
		require.NoError(t, err, lang)
		assert.Equal(t, lang, e.Language())
		assert.Equal(t, ast.StrategyGrammar, e.Strategy(), lang)
	}
}

func TestWithDefaults_PatternOnly(t *testing.T) {
	r := WithDefaults(grammar.None())
	for _, lang := range r.Languages() {
		e, err := r.Get(lang)
		require.NoError(t, err)
		assert.Equal(t, ast.StrategyPattern, e.Strategy(), lang)
	}
}

func TestWithDefaults_Unsupported(t *testing.T) {
	r := WithDefaults(grammar.Builtin())
	_, err := r.Get(ontology.Language("cobol"))
	assert.True(t, errors.Is(err, ast.ErrLanguageNotSupported))
}

func TestWithDefaults_LanguageForPath(t *testing.T) {
	r := WithDefaults(grammar.Builtin())
	tests := map[string]ontology.Language{
		"app/main.py":      ontology.LanguagePython,
		"web/index.ts":     ontology.LanguageJavaScript,
		"web/App.vue":      ontology.LanguageVue,
		"src/lib.rs":       ontology.LanguageRust,
		"include/util.h":   ontology.LanguageC,
		"scripts/ci.sh":    ontology.LanguageBash,
		"public/index.php": ontology.LanguagePHP,
	}
	for path, want := range tests {
		got, ok := r.LanguageForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := r.LanguageForPath("README.md")
	assert.False(t, ok)
}

// Every extractor honours its own ontology on a small but real input.
func TestExtractors_StayInOntology(t *testing.T) {
	inputs := map[ontology.Language]string{
		ontology.LanguagePython:     "import os\n\ndef main():\n    os.getcwd()\n",
		ontology.LanguageJavaScript: "import x from 'y';\nfunction main() { x(); }\n",
		ontology.LanguageRust:       "use std::io;\nfn main() { io::stdin(); }\n",
		ontology.LanguageC:          "#include <stdio.h>\nint main(void) { puts(\"hi\"); return 0; }\n",
		ontology.LanguageBash:       "greet() { echo hi; }\ngreet\n",
		ontology.LanguagePHP:        "<?php\nfunction main() { strlen('x'); }\n",
		ontology.LanguageVue:        "<template><Child/></template>\n<script>\nexport default { name: 'Root' }\n</script>\n",
	}
	for _, provider := range []grammar.Provider{grammar.Builtin(), grammar.None()} {
		for _, e := range Extractors(provider) {
			src, ok := inputs[e.Language()]
			require.True(t, ok, e.Language())

			r := e.Parse(context.Background(), []byte(src), "")
			ont := e.Ontology()
			assert.NotEmpty(t, r.Symbols, "%s/%s", e.Language(), e.Strategy())
			for _, s := range r.Symbols {
				assert.True(t, ont.AllowsNode(s.Kind), "%s: node %s", e.Language(), s.Kind)
				assert.Equal(t, ast.DefaultPath, s.Path)
			}
			for _, rel := range r.Relations {
				assert.True(t, ont.AllowsRelation(rel.Type), "%s: relation %s", e.Language(), rel.Type)
			}
			assert.False(t, ast.HasDiagnostic(r.Diagnostics, ast.KindOntologyViolation), e.Language())
		}
	}
}
