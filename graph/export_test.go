package graph

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semgraph/ontology"
	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []NodeRecord{
			{ID: "src/app.py#main", Name: "main", Kind: ontology.KindFunction, Language: ontology.LanguagePython, Path: "src/app.py", StartLine: 3, EndLine: 5},
			{ID: "src/app.py#", Name: "app", Kind: ontology.KindModule, Language: ontology.LanguagePython, Path: "src/app.py"},
		},
		Edges: []EdgeRecord{
			edge("src/app.py#main", `say "hi"`, ontology.RelCalls, 0.75, edgemetrics.ImportanceHigh),
		},
	}
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleGraph(), FormatJSON))

	var decoded Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleGraph().Nodes, decoded.Nodes)
	require.Len(t, decoded.Edges, 1)
	assert.Equal(t, edgemetrics.ImportanceHigh, decoded.Edges[0].Importance)
	assert.Contains(t, buf.String(), `"structural_weight"`)
}

func TestExport_EdgeFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleGraph(), FormatJSON))

	var raw struct {
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Len(t, raw.Edges, 1)
	e := raw.Edges[0]
	assert.Equal(t, "src/app.py#main", e["source_id"])
	assert.Equal(t, `say "hi"`, e["target_id"])
	assert.Equal(t, "HIGH", e["importance_level"])
	for _, old := range []string{"source", "target", "importance"} {
		assert.NotContains(t, e, old)
	}
}

func TestExport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleGraph(), FormatYAML))

	var decoded Graph
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleGraph().Nodes, decoded.Nodes)
	assert.Contains(t, buf.String(), "importance_level: HIGH")
}

func TestExport_NTriples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleGraph(), FormatNTriples))
	out := buf.String()

	main := NodeIRI("src/app.py#main")
	assert.Equal(t, NodeNamespace+"src%2Fapp.py%23main", main)
	assert.Contains(t, out, "<"+main+"> <"+rdfType+"> <"+Namespace+"function> .\n")
	assert.Contains(t, out, "<"+main+"> <"+Namespace+"startLine> \"3\"^^<"+xsdInt+"> .\n")
	assert.Contains(t, out, "<"+main+"> <"+Namespace+"CALLS> <"+NodeIRI(`say "hi"`)+"> .\n")
	assert.Contains(t, out, `"0.75"^^<`+xsdDouble+`>`)
	assert.Contains(t, out, `<`+Namespace+`importance> "HIGH" .`)

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.True(t, strings.HasSuffix(line, " ."), "line not terminated: %s", line)
		assert.True(t, strings.HasPrefix(line, "<"), "line has no subject IRI: %s", line)
	}
	// The module node has no line range.
	assert.NotContains(t, out, "<"+NodeIRI("src/app.py#")+"> <"+Namespace+"startLine>")
}

func TestExport_UnknownFormat(t *testing.T) {
	assert.Error(t, Export(&bytes.Buffer{}, sampleGraph(), Format("graphml")))
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"out/graph.json": FormatJSON,
		"graph.yaml":     FormatYAML,
		"graph.yml":      FormatYAML,
		"graph.nt":       FormatNTriples,
	}
	for path, want := range tests {
		got, ok := FormatForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := FormatForPath("graph.txt")
	assert.False(t, ok)
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `a\"b\\c\nd`, escapeString("a\"b\\c\nd"))
}
