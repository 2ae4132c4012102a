package ast

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/c360studio/semgraph/ontology"
)

// DefaultExtensions maps file extensions to the language that handles them.
var DefaultExtensions = map[string]ontology.Language{
	".py":   ontology.LanguagePython,
	".js":   ontology.LanguageJavaScript,
	".mjs":  ontology.LanguageJavaScript,
	".cjs":  ontology.LanguageJavaScript,
	".ts":   ontology.LanguageJavaScript,
	".vue":  ontology.LanguageVue,
	".php":  ontology.LanguagePHP,
	".sh":   ontology.LanguageBash,
	".bash": ontology.LanguageBash,
	".c":    ontology.LanguageC,
	".h":    ontology.LanguageC,
	".rs":   ontology.LanguageRust,
}

// Registry maintains the extractors available to a pipeline, keyed by language.
// Thread-safe for concurrent access.
type Registry struct {
	mu         sync.RWMutex
	extractors map[ontology.Language]Extractor
	extMap     map[string]ontology.Language // extension → language
}

// NewRegistry creates an empty extractor registry using DefaultExtensions.
func NewRegistry() *Registry {
	r := &Registry{
		extractors: make(map[ontology.Language]Extractor),
		extMap:     make(map[string]ontology.Language, len(DefaultExtensions)),
	}
	for ext, lang := range DefaultExtensions {
		r.extMap[ext] = lang
	}
	return r
}

// Register adds an extractor for its language, replacing any previous one.
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors[e.Language()] = e
}

// MapExtension routes files with ext (including the leading dot) to lang.
func (r *Registry) MapExtension(ext string, lang ontology.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extMap[strings.ToLower(ext)] = lang
}

// Get returns the extractor registered for lang.
func (r *Registry) Get(lang ontology.Language) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLanguageNotSupported, lang)
	}
	return e, nil
}

// Ontology returns the ontology of the extractor registered for lang
// without invoking it.
func (r *Registry) Ontology(lang ontology.Language) (ontology.Ontology, error) {
	e, err := r.Get(lang)
	if err != nil {
		return ontology.Ontology{}, err
	}
	return e.Ontology(), nil
}

// Languages returns the registered languages, sorted.
func (r *Registry) Languages() []ontology.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]ontology.Language, 0, len(r.extractors))
	for l := range r.extractors {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}

// Extensions returns the extensions routed to registered extractors, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extMap))
	for ext, lang := range r.extMap {
		if _, ok := r.extractors[lang]; ok {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

// LanguageForPath infers the language of a file from its extension.
func (r *Registry) LanguageForPath(path string) (ontology.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.extMap[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
