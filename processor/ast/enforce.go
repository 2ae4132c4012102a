package ast

import "github.com/c360studio/semgraph/ontology"

// Enforce drops every symbol and relation of r that falls outside ont and
// records an error diagnostic for each one dropped.
func Enforce(ont ontology.Ontology, r *ParseResult) {
	if r == nil {
		return
	}

	symbols := r.Symbols[:0:0]
	for _, s := range r.Symbols {
		if !ont.AllowsNode(s.Kind) {
			r.Diagnostics = append(r.Diagnostics, Error(KindOntologyViolation, r.Path,
				"symbol %s has kind %s outside the %s ontology", s.ID, s.Kind, ont.Language))
			continue
		}
		symbols = append(symbols, s)
	}
	r.Symbols = symbols

	relations := r.Relations[:0:0]
	for _, rel := range r.Relations {
		if !ont.AllowsRelation(rel.Type) {
			r.Diagnostics = append(r.Diagnostics, Error(KindOntologyViolation, r.Path,
				"relation %s -> %s has type %s outside the %s ontology", rel.SourceID, rel.TargetID, rel.Type, ont.Language))
			continue
		}
		relations = append(relations, rel)
	}
	r.Relations = relations
}
