package graph

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgraph/internal/natsutil"
	"github.com/c360studio/semgraph/ontology"
	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
)

func TestPublisher_Publish(t *testing.T) {
	conn, err := natsutil.Connect(natsutil.Options{StoreDir: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := NewPublisher(conn.JS, "", nil)
	stream, err := p.EnsureStream(ctx, "")
	require.NoError(t, err)

	g := sampleGraph()
	require.NoError(t, p.Publish(ctx, "run-1", "/repo", g))
	// Republishing the same run is deduplicated.
	require.NoError(t, p.Publish(ctx, "run-1", "/repo", g))

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(g.Nodes)+len(g.Edges), info.State.Msgs)

	cons, err := stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{DefaultSubjectPrefix + ".edge.calls.high"},
	})
	require.NoError(t, err)
	msg, err := cons.Next(jetstream.FetchMaxWait(2 * time.Second))
	require.NoError(t, err)

	var in IngestMessage
	require.NoError(t, json.Unmarshal(msg.Data(), &in))
	assert.Equal(t, "run-1", in.RunID)
	assert.Equal(t, "/repo", in.Root)
	require.NotNil(t, in.Edge)
	assert.Nil(t, in.Node)
	assert.Equal(t, g.Edges[0].Key(), in.Edge.Key())
	assert.Contains(t, string(msg.Data()), `"source_id":"src/app.py#main"`)
	assert.Contains(t, string(msg.Data()), `"importance_level":"HIGH"`)
}

func TestPublisher_Subjects(t *testing.T) {
	p := NewPublisher(nil, "acme.graph", nil)
	assert.Equal(t, "acme.graph.node.python",
		p.NodeSubject(NodeRecord{Language: ontology.LanguagePython}))
	assert.Equal(t, "acme.graph.edge.child_component.critical",
		p.EdgeSubject(EdgeRecord{Type: ontology.RelChildComponent, Importance: edgemetrics.ImportanceCritical}))
	assert.Equal(t, "acme.graph.edge._._",
		p.EdgeSubject(EdgeRecord{}))
}
