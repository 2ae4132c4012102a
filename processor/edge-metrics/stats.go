package edgemetrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/c360studio/semgraph/ontology"
)

// Relation categories used in statistics.
const (
	CategoryExecution  = "execution"
	CategoryStructural = "structural"
	CategoryDataFlow   = "data_flow"
)

var categories = map[ontology.RelationKind]string{
	ontology.RelCalls:        CategoryExecution,
	ontology.RelAsyncAwaits:  CategoryExecution,
	ontology.RelInstantiates: CategoryExecution,
	ontology.RelRaises:       CategoryExecution,
	ontology.RelCatches:      CategoryExecution,
	ontology.RelExtends:      CategoryStructural,
	ontology.RelImplements:   CategoryStructural,
	ontology.RelDecorates:    CategoryStructural,
	ontology.RelImports:      CategoryStructural,
	ontology.RelDefines:      CategoryDataFlow,
	ontology.RelUses:         CategoryDataFlow,
	ontology.RelReads:        CategoryDataFlow,
	ontology.RelWrites:       CategoryDataFlow,
	ontology.RelReturns:      CategoryDataFlow,
	ontology.RelYields:       CategoryDataFlow,
}

// Category returns the statistics category of kind, or "" when it has none.
func Category(kind ontology.RelationKind) string {
	return categories[kind]
}

// DimensionStats summarizes one score across all edges. Std is the
// population standard deviation.
type DimensionStats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Std  float64 `json:"std" yaml:"std"`
}

// Statistics describes an enriched graph.
type Statistics struct {
	TotalEdges  int                           `json:"total_edges" yaml:"total_edges"`
	UniqueTypes int                           `json:"unique_edge_types" yaml:"unique_edge_types"`
	TypeCounts  map[ontology.RelationKind]int `json:"type_counts" yaml:"type_counts"`
	Dimensions  map[string]DimensionStats     `json:"dimensions" yaml:"dimensions"`

	// Entropy is the Shannon entropy, in nats, of the relation type distribution.
	Entropy float64 `json:"entropy" yaml:"entropy"`

	Categories map[string][]ontology.RelationKind `json:"edge_categories" yaml:"edge_categories"`
	Importance map[Importance]int                 `json:"importance" yaml:"importance"`
}

// Summarize computes statistics over an enriched relation list. An empty
// list yields zero totals and empty maps.
func Summarize(enriched []EnrichedRelation) Statistics {
	st := Statistics{
		TotalEdges: len(enriched),
		TypeCounts: make(map[ontology.RelationKind]int),
		Dimensions: make(map[string]DimensionStats),
		Categories: make(map[string][]ontology.RelationKind),
		Importance: make(map[Importance]int),
	}
	if len(enriched) == 0 {
		return st
	}

	dims := map[string][]float64{
		"structural": make([]float64, 0, len(enriched)),
		"functional": make([]float64, 0, len(enriched)),
		"centrality": make([]float64, 0, len(enriched)),
		"depth":      make([]float64, 0, len(enriched)),
		"weight":     make([]float64, 0, len(enriched)),
	}
	for _, r := range enriched {
		st.TypeCounts[r.Type]++
		st.Importance[r.ImportanceLevel]++
		dims["structural"] = append(dims["structural"], r.Structural)
		dims["functional"] = append(dims["functional"], r.Functional)
		dims["centrality"] = append(dims["centrality"], r.Centrality)
		dims["depth"] = append(dims["depth"], r.Depth)
		dims["weight"] = append(dims["weight"], r.Weight)
	}
	st.UniqueTypes = len(st.TypeCounts)

	for name, values := range dims {
		mean, variance := stat.PopMeanVariance(values, nil)
		st.Dimensions[name] = DimensionStats{
			Mean: mean,
			Min:  floats.Min(values),
			Max:  floats.Max(values),
			Std:  math.Sqrt(variance),
		}
	}

	kinds := make([]ontology.RelationKind, 0, len(st.TypeCounts))
	for kind := range st.TypeCounts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	p := make([]float64, 0, len(kinds))
	for _, kind := range kinds {
		p = append(p, float64(st.TypeCounts[kind])/float64(st.TotalEdges))
		if c := Category(kind); c != "" {
			st.Categories[c] = append(st.Categories[c], kind)
		}
	}
	st.Entropy = stat.Entropy(p)
	return st
}

// Softmax normalizes weights into a distribution. Lower temperatures
// sharpen it toward the largest weight.
func Softmax(weights []float64, temperature float64) ([]float64, error) {
	if temperature <= 0 || math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return nil, fmt.Errorf("softmax temperature must be positive, got %v", temperature)
	}
	if len(weights) == 0 {
		return []float64{}, nil
	}
	peak := floats.Max(weights)
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = math.Exp((w - peak) / temperature)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out, nil
}
