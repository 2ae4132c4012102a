package ontology

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrOntologyNotFound is returned when no ontology is registered for a language.
var ErrOntologyNotFound = errors.New("ontology not found")

// Registry maps languages to their ontologies.
// Thread-safe for concurrent access.
type Registry struct {
	mu         sync.RWMutex
	ontologies map[Language]Ontology
}

// NewRegistry creates an empty ontology registry.
func NewRegistry() *Registry {
	return &Registry{
		ontologies: make(map[Language]Ontology),
	}
}

// WithDefaults creates a registry holding the built-in ontologies for every
// source language plus the filesystem ontology.
func WithDefaults() *Registry {
	r := NewRegistry()
	for _, o := range Builtin() {
		r.Register(o)
	}
	return r
}

// Register adds an ontology, replacing any existing entry for the same language.
func (r *Registry) Register(o Ontology) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ontologies[o.Language] = o
}

// Get returns the ontology registered for lang.
func (r *Registry) Get(lang Language) (Ontology, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.ontologies[lang]
	if !ok {
		return Ontology{}, fmt.Errorf("%w: %s", ErrOntologyNotFound, lang)
	}
	return o, nil
}

// Languages returns the registered languages, sorted.
func (r *Registry) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]Language, 0, len(r.ontologies))
	for l := range r.ontologies {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}
