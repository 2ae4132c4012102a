// Package edgemetrics scores the relations of one logical graph along four
// dimensions (structural rarity, functional criticality, endpoint centrality
// and scope depth) and combines them into a weight and importance level.
//
// Scoring is two passes over the relation list: the first aggregates type
// counts and symbol degrees, the second scores each edge with constant-time
// lookups into those aggregates. The full relation set must be materialized
// before scoring.
package edgemetrics

import (
	"math"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

// OntologySource resolves the ontology of a relation's language.
// *ontology.Registry satisfies it.
type OntologySource interface {
	Get(lang ontology.Language) (ontology.Ontology, error)
}

// Scores are the four per-edge signals, each in [0,1].
type Scores struct {
	Structural float64 `json:"structural_weight" yaml:"structural_weight"`
	Functional float64 `json:"functional_weight" yaml:"functional_weight"`
	Centrality float64 `json:"centrality_weight" yaml:"centrality_weight"`
	Depth      float64 `json:"depth_weight" yaml:"depth_weight"`
}

// Combine returns Σ wᵢ·sᵢ clamped to [0,1].
func (s Scores) Combine(w DimensionWeights) float64 {
	return clamp(w.Structural*s.Structural +
		w.Functional*s.Functional +
		w.Centrality*s.Centrality +
		w.Depth*s.Depth)
}

// EnrichedRelation is a relation with its computed metrics. The identity
// fields are copied unchanged.
type EnrichedRelation struct {
	ast.Relation `yaml:",inline"`
	Scores       `yaml:",inline"`

	Weight          float64    `json:"weight" yaml:"weight"`
	ImportanceLevel Importance `json:"importance_level" yaml:"importance_level"`
	Frequency       float64    `json:"frequency" yaml:"frequency"`
}

// Engine enriches relation lists. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	ontologies OntologySource
}

// New creates an engine that reads functional tables and scope separators
// from ontologies. A nil source scores every relation with the unknown
// functional weight and no scope depth.
func New(ontologies OntologySource) *Engine {
	return &Engine{ontologies: ontologies}
}

// aggregates are the results of the first pass.
type aggregates struct {
	total  int
	counts map[ontology.RelationKind]int
	degree map[string]int
}

func aggregate(relations []ast.Relation) aggregates {
	a := aggregates{
		total:  len(relations),
		counts: make(map[ontology.RelationKind]int),
		degree: make(map[string]int),
	}
	for _, r := range relations {
		a.counts[r.Type]++
		a.degree[r.SourceID]++
		a.degree[r.TargetID]++
	}
	return a
}

// Enrich scores every relation. The input is not modified; the output has
// the same length and order. An empty input yields an empty, non-nil slice.
func (e *Engine) Enrich(relations []ast.Relation, opts Options) []EnrichedRelation {
	out := make([]EnrichedRelation, 0, len(relations))
	if len(relations) == 0 {
		return out
	}
	opts = opts.withDefaults()
	agg := aggregate(relations)

	structural := make(map[ontology.RelationKind]float64, len(agg.counts))
	for kind, count := range agg.counts {
		structural[kind] = Structural(agg.total, count, opts.Smoothing)
	}
	onts := make(map[ontology.Language]*ontology.Ontology)

	for _, r := range relations {
		ont := e.ontology(onts, r.Language)
		s := Scores{
			Structural: structural[r.Type],
			Functional: functional(ont, r.Type, opts.Functional),
			Centrality: Centrality(agg.degree[r.SourceID], agg.degree[r.TargetID], opts.CentralityCap),
			Depth:      Depth(r.SourceID, separator(ont), opts.DepthCap),
		}
		weight := s.Combine(opts.Weights)
		out = append(out, EnrichedRelation{
			Relation:        r,
			Scores:          s,
			Weight:          weight,
			ImportanceLevel: opts.Thresholds.Classify(weight),
			Frequency:       float64(agg.counts[r.Type]) / float64(agg.total),
		})
	}
	return out
}

// ontology memoizes lookups for one run; nil means the language is unknown.
func (e *Engine) ontology(cache map[ontology.Language]*ontology.Ontology, lang ontology.Language) *ontology.Ontology {
	if ont, ok := cache[lang]; ok {
		return ont
	}
	var ont *ontology.Ontology
	if e.ontologies != nil {
		if o, err := e.ontologies.Get(lang); err == nil {
			ont = &o
		}
	}
	cache[lang] = ont
	return ont
}

// Structural is the inverse-frequency rarity of a relation type with count
// occurrences among total relations: log(N/count)/log(N). It is 0 when the
// count carries no information (N ≤ 1 or count == N). A positive smoothing α
// replaces count with count+α.
func Structural(total, count int, smoothing float64) float64 {
	if total <= 1 || count <= 0 {
		return 0
	}
	if count == total && smoothing <= 0 {
		return 0
	}
	n := float64(total)
	return clamp(math.Log(n/(float64(count)+smoothing)) / math.Log(n))
}

// Centrality is log(deg(s)+deg(t)+1)/log(limit), saturating at 1.
func Centrality(sourceDegree, targetDegree int, limit float64) float64 {
	if limit <= 1 {
		limit = DefaultCentralityCap
	}
	return clamp(math.Log(float64(sourceDegree+targetDegree+1)) / math.Log(limit))
}

// Depth is the scope depth of id divided by limit, saturating at 1.
func Depth(id, sep string, limit float64) float64 {
	if limit <= 0 {
		limit = DefaultDepthCap
	}
	return clamp(float64(ast.ScopeDepth(id, sep)) / limit)
}

func functional(ont *ontology.Ontology, kind ontology.RelationKind, overrides map[ontology.RelationKind]float64) float64 {
	if w, ok := overrides[kind]; ok {
		return clamp(w)
	}
	if ont == nil {
		return ontology.UnknownFunctionalWeight
	}
	return clamp(ont.Functional(kind))
}

func separator(ont *ontology.Ontology) string {
	if ont == nil {
		return ""
	}
	return ont.ScopeSeparator
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
