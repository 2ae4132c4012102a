// Package graph turns an enriched extraction result into node and edge
// records for downstream graph stores, and provides the query helpers the
// retrieval layer uses over edge weights.
package graph

import (
	"fmt"
	"slices"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
	"github.com/c360studio/semgraph/processor/enrichment"
)

// NodeRecord is a symbol as stored in a graph.
type NodeRecord struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Kind      ontology.NodeKind `json:"kind" yaml:"kind"`
	Language  ontology.Language `json:"language" yaml:"language"`
	Path      string            `json:"path" yaml:"path"`
	StartLine int               `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int               `json:"end_line,omitempty" yaml:"end_line,omitempty"`
}

// EdgeRecord is an enriched relation as stored in a graph. Importance is the
// property queries filter on.
type EdgeRecord struct {
	Source     string                 `json:"source_id" yaml:"source_id"`
	Target     string                 `json:"target_id" yaml:"target_id"`
	Type       ontology.RelationKind  `json:"type" yaml:"type"`
	Language   ontology.Language      `json:"language" yaml:"language"`
	Weight     float64                `json:"weight" yaml:"weight"`
	Importance edgemetrics.Importance `json:"importance_level" yaml:"importance_level"`
	Structural float64                `json:"structural_weight" yaml:"structural_weight"`
	Functional float64                `json:"functional_weight" yaml:"functional_weight"`
	Centrality float64                `json:"centrality_weight" yaml:"centrality_weight"`
	Depth      float64                `json:"depth_weight" yaml:"depth_weight"`
	Frequency  float64                `json:"frequency" yaml:"frequency"`

	// Normalized is the softmax share of Weight within its graph, set by
	// Normalize.
	Normalized float64 `json:"normalized_weight,omitempty" yaml:"normalized_weight,omitempty"`
}

// Key identifies the edge within a graph.
func (e EdgeRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s", e.Source, e.Type, e.Target)
}

// Graph is the record form of one enrichment run.
type Graph struct {
	Nodes      []NodeRecord           `json:"nodes" yaml:"nodes"`
	Edges      []EdgeRecord           `json:"edges" yaml:"edges"`
	Statistics edgemetrics.Statistics `json:"statistics" yaml:"statistics"`
}

// NodeFromSymbol converts a symbol.
func NodeFromSymbol(s ast.Symbol) NodeRecord {
	return NodeRecord{
		ID:        s.ID,
		Name:      s.Name,
		Kind:      s.Kind,
		Language:  s.Language,
		Path:      s.Path,
		StartLine: s.StartLine,
		EndLine:   s.EndLine,
	}
}

// EdgeFromRelation converts an enriched relation.
func EdgeFromRelation(r edgemetrics.EnrichedRelation) EdgeRecord {
	return EdgeRecord{
		Source:     r.SourceID,
		Target:     r.TargetID,
		Type:       r.Type,
		Language:   r.Language,
		Weight:     r.Weight,
		Importance: r.ImportanceLevel,
		Structural: r.Structural,
		Functional: r.Functional,
		Centrality: r.Centrality,
		Depth:      r.Depth,
		Frequency:  r.Frequency,
	}
}

// FromResult builds the record graph of res, preserving order.
func FromResult(res *enrichment.Result) Graph {
	g := Graph{
		Nodes: make([]NodeRecord, len(res.Symbols)),
		Edges: make([]EdgeRecord, len(res.Relations)),
	}
	for i, s := range res.Symbols {
		g.Nodes[i] = NodeFromSymbol(s)
	}
	for i, r := range res.Relations {
		g.Edges[i] = EdgeFromRelation(r)
	}
	g.Statistics = res.Statistics
	return g
}

// Filter returns the edges with weight ≥ minWeight whose importance is one of
// levels. No levels admits every importance.
func Filter(edges []EdgeRecord, minWeight float64, levels ...edgemetrics.Importance) []EdgeRecord {
	out := make([]EdgeRecord, 0, len(edges))
	for _, e := range edges {
		if e.Weight < minWeight {
			continue
		}
		if len(levels) > 0 && !slices.Contains(levels, e.Importance) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// PathMode selects how PathWeight folds edge weights.
type PathMode string

const (
	// PathMultiplicative multiplies weights: every weak hop weakens the path.
	PathMultiplicative PathMode = "multiplicative"
	// PathAdditive averages weights.
	PathAdditive PathMode = "additive"
)

// PathWeight scores a path of edges. An empty path scores 0.
func PathWeight(path []EdgeRecord, mode PathMode) (float64, error) {
	if len(path) == 0 {
		return 0, nil
	}
	switch mode {
	case PathMultiplicative:
		w := 1.0
		for _, e := range path {
			w *= e.Weight
		}
		return w, nil
	case PathAdditive:
		sum := 0.0
		for _, e := range path {
			sum += e.Weight
		}
		return sum / float64(len(path)), nil
	default:
		return 0, fmt.Errorf("unknown path mode %q", mode)
	}
}

// Normalize sets Normalized on every edge to the softmax of its weight over
// all edges at temperature.
func Normalize(edges []EdgeRecord, temperature float64) error {
	if len(edges) == 0 {
		return nil
	}
	weights := make([]float64, len(edges))
	for i, e := range edges {
		weights[i] = e.Weight
	}
	probs, err := edgemetrics.Softmax(weights, temperature)
	if err != nil {
		return err
	}
	for i := range edges {
		edges[i].Normalized = probs[i]
	}
	return nil
}

// Top returns the n heaviest edges, ties broken by key for stable output.
func Top(edges []EdgeRecord, n int) []EdgeRecord {
	sorted := slices.Clone(edges)
	slices.SortStableFunc(sorted, func(a, b EdgeRecord) int {
		if a.Weight != b.Weight {
			if a.Weight > b.Weight {
				return -1
			}
			return 1
		}
		switch ka, kb := a.Key(), b.Key(); {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return sorted[:max(0, min(n, len(sorted)))]
}
