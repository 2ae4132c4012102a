package ast

import (
	"strings"

	"github.com/c360studio/semgraph/ontology"
)

// resolvable lists the relation kinds whose bare-name endpoints may be bound
// to extracted symbols. Dependency kinds name modules and files, not symbols.
var resolvable = map[ontology.RelationKind]bool{
	ontology.RelCalls:          true,
	ontology.RelAsyncAwaits:    true,
	ontology.RelInstantiates:   true,
	ontology.RelExtends:        true,
	ontology.RelImplements:     true,
	ontology.RelDecorates:      true,
	ontology.RelRaises:         true,
	ontology.RelCatches:        true,
	ontology.RelWithContext:    true,
	ontology.RelChildComponent: true,
	ontology.RelOverrides:      true,
}

// Resolvable reports whether endpoints of kind may be resolved by name.
func Resolvable(kind ontology.RelationKind) bool {
	return resolvable[kind]
}

type nameKey struct {
	lang ontology.Language
	name string
}

// NameIndex binds textual names to symbol IDs. A name resolves only when
// exactly one symbol of the language carries it.
type NameIndex struct {
	ids map[nameKey][]string
}

// NewNameIndex indexes symbols by simple name and by scope-qualified name.
func NewNameIndex(symbols []Symbol) *NameIndex {
	x := &NameIndex{ids: make(map[nameKey][]string)}
	for _, s := range symbols {
		if s.Name == "" {
			continue
		}
		x.add(nameKey{s.Language, s.Name}, s.ID)
		if i := strings.Index(s.ID, ScopeAnchor); i >= 0 {
			if q := s.ID[i+len(ScopeAnchor):]; q != "" && q != s.Name {
				x.add(nameKey{s.Language, q}, s.ID)
			}
		}
	}
	return x
}

func (x *NameIndex) add(k nameKey, id string) {
	for _, existing := range x.ids[k] {
		if existing == id {
			return
		}
	}
	x.ids[k] = append(x.ids[k], id)
}

// Resolve returns the unique symbol ID named name in lang.
func (x *NameIndex) Resolve(lang ontology.Language, name string) (string, bool) {
	ids := x.ids[nameKey{lang, name}]
	if len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}

// ResolveRelations rewrites bare-name endpoints of resolvable relations to
// symbol IDs and returns how many endpoints changed. Endpoints that already
// carry the scope anchor are left alone.
func (x *NameIndex) ResolveRelations(relations []Relation) int {
	n := 0
	for i := range relations {
		r := &relations[i]
		if !Resolvable(r.Type) {
			continue
		}
		if id, ok := x.resolveEndpoint(r.Language, r.TargetID); ok {
			r.TargetID = id
			n++
		}
		if id, ok := x.resolveEndpoint(r.Language, r.SourceID); ok {
			r.SourceID = id
			n++
		}
	}
	return n
}

func (x *NameIndex) resolveEndpoint(lang ontology.Language, endpoint string) (string, bool) {
	if endpoint == "" || strings.Contains(endpoint, ScopeAnchor) {
		return "", false
	}
	return x.Resolve(lang, endpoint)
}
