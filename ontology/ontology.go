package ontology

import (
	"maps"
	"slices"
)

// Ontology is the closed vocabulary a language's extractor may emit.
// Values returned from a Registry share their slices and map; treat them as read-only.
type Ontology struct {
	Language    Language
	Description string

	// ScopeSeparator joins scope segments in symbol IDs ("." for python, "::" for rust).
	ScopeSeparator string

	NodeKinds     []NodeKind
	RelationKinds []RelationKind

	// FunctionalWeights rates each relation kind in [0,1]. Kinds missing from
	// the table rate UnknownFunctionalWeight.
	FunctionalWeights map[RelationKind]float64
}

// Describe returns o with its description set.
func (o Ontology) Describe(description string) Ontology {
	o.Description = description
	return o
}

// New builds an ontology whose functional table is the subset of
// DefaultFunctionalWeights covering the given relation kinds.
func New(lang Language, sep string, nodes []NodeKind, relations []RelationKind) Ontology {
	weights := make(map[RelationKind]float64, len(relations))
	for _, r := range relations {
		if w, ok := DefaultFunctionalWeights[r]; ok {
			weights[r] = w
		}
	}
	return Ontology{
		Language:          lang,
		ScopeSeparator:    sep,
		NodeKinds:         slices.Clone(nodes),
		RelationKinds:     slices.Clone(relations),
		FunctionalWeights: weights,
	}
}

// AllowsNode reports whether kind belongs to the ontology.
func (o Ontology) AllowsNode(kind NodeKind) bool {
	return slices.Contains(o.NodeKinds, kind)
}

// AllowsRelation reports whether kind belongs to the ontology.
func (o Ontology) AllowsRelation(kind RelationKind) bool {
	return slices.Contains(o.RelationKinds, kind)
}

// Functional returns the functional importance of a relation kind.
func (o Ontology) Functional(kind RelationKind) float64 {
	if w, ok := o.FunctionalWeights[kind]; ok {
		return w
	}
	return UnknownFunctionalWeight
}

// WithFunctionalWeight returns a copy of the ontology with one entry of the
// functional table replaced.
func (o Ontology) WithFunctionalWeight(kind RelationKind, w float64) Ontology {
	o.FunctionalWeights = maps.Clone(o.FunctionalWeights)
	if o.FunctionalWeights == nil {
		o.FunctionalWeights = make(map[RelationKind]float64)
	}
	o.FunctionalWeights[kind] = w
	return o
}
