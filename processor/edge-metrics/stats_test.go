package edgemetrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

func TestSummarize(t *testing.T) {
	out := New(ontology.WithDefaults()).Enrich(threeFileGraph(), DefaultOptions())
	st := Summarize(out)

	assert.Equal(t, 16, st.TotalEdges)
	assert.Equal(t, 3, st.UniqueTypes)
	assert.Equal(t, 10, st.TypeCounts[ontology.RelImports])

	functional := st.Dimensions["functional"]
	assert.Equal(t, 0.2, functional.Min)
	assert.Equal(t, 1.0, functional.Max)
	assert.InDelta(t, (5*1.0+10*0.2+1*0.2)/16, functional.Mean, 1e-9)

	want := 0.0
	for _, c := range []float64{5, 10, 1} {
		p := c / 16
		want -= p * math.Log(p)
	}
	assert.InDelta(t, want, st.Entropy, 1e-9)

	assert.Equal(t, []ontology.RelationKind{ontology.RelCalls}, st.Categories[CategoryExecution])
	assert.Equal(t, []ontology.RelationKind{ontology.RelImplements, ontology.RelImports}, st.Categories[CategoryStructural])

	total := 0
	for _, n := range st.Importance {
		total += n
	}
	assert.Equal(t, 16, total)
}

func TestSummarize_ConstantDimension(t *testing.T) {
	rels := []ast.Relation{
		rel(ontology.RelCalls, "a.py#f", "g"),
		rel(ontology.RelCalls, "a.py#h", "k"),
	}
	st := Summarize(New(ontology.WithDefaults()).Enrich(rels, DefaultOptions()))
	assert.Equal(t, 0.0, st.Dimensions["structural"].Std)
	assert.Equal(t, 0.0, st.Entropy)
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(nil)
	assert.Zero(t, st.TotalEdges)
	assert.Empty(t, st.Dimensions)
}

func TestSoftmax(t *testing.T) {
	p, err := Softmax([]float64{0.2, 0.2, 0.2, 0.2}, 1)
	require.NoError(t, err)
	for _, v := range p {
		assert.InDelta(t, 0.25, v, 1e-9)
	}

	warm, err := Softmax([]float64{0.9, 0.1}, 1)
	require.NoError(t, err)
	cold, err := Softmax([]float64{0.9, 0.1}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, warm[0]+warm[1], 1e-9)
	assert.Greater(t, cold[0], warm[0], "lower temperature sharpens")

	empty, err := Softmax(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Softmax([]float64{1}, 0)
	assert.Error(t, err)
}
