package graph

import (
	"errors"
	"fmt"
	"strings"

	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
)

// Query narrows the edges of a graph before it is exported.
type Query struct {
	MinWeight  float64
	Importance []edgemetrics.Importance

	// Top keeps the n heaviest edges. Zero keeps all.
	Top int

	// Temperature, when positive, fills Normalized with the softmax of the
	// remaining edge weights.
	Temperature float64
}

// Empty reports whether q keeps g unchanged.
func (q Query) Empty() bool {
	return q.MinWeight == 0 && len(q.Importance) == 0 && q.Top == 0 && q.Temperature == 0
}

// Apply returns g with the edges that pass q. Nodes and statistics are
// kept; g itself is not modified.
func (g Graph) Apply(q Query) (Graph, error) {
	out := g
	out.Edges = Filter(g.Edges, q.MinWeight, q.Importance...)
	if q.Top > 0 {
		out.Edges = Top(out.Edges, q.Top)
	}
	if q.Temperature > 0 {
		if err := Normalize(out.Edges, q.Temperature); err != nil {
			return Graph{}, err
		}
	}
	return out, nil
}

// ParseImportance reads an importance level, case-insensitively.
func ParseImportance(s string) (edgemetrics.Importance, error) {
	switch l := edgemetrics.Importance(strings.ToUpper(strings.TrimSpace(s))); l {
	case edgemetrics.ImportanceCritical, edgemetrics.ImportanceHigh,
		edgemetrics.ImportanceMedium, edgemetrics.ImportanceLow:
		return l, nil
	}
	return "", fmt.Errorf("unknown importance %q", s)
}

// Trace returns the heaviest edge from each node ID to the next.
func Trace(edges []EdgeRecord, ids ...string) ([]EdgeRecord, error) {
	if len(ids) < 2 {
		return nil, errors.New("a path needs at least two nodes")
	}
	path := make([]EdgeRecord, 0, len(ids)-1)
	for i := 1; i < len(ids); i++ {
		var best *EdgeRecord
		for j := range edges {
			e := &edges[j]
			if e.Source != ids[i-1] || e.Target != ids[i] {
				continue
			}
			if best == nil || e.Weight > best.Weight {
				best = e
			}
		}
		if best == nil {
			return nil, fmt.Errorf("no edge %s -> %s", ids[i-1], ids[i])
		}
		path = append(path, *best)
	}
	return path, nil
}
