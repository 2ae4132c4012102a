package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultSubjectPrefix roots the subjects the publisher writes to.
const DefaultSubjectPrefix = "semgraph.graph"

// DefaultStream is the stream capturing published graphs.
const DefaultStream = "SEMGRAPH_GRAPH"

// IngestMessage is one published node or edge.
type IngestMessage struct {
	RunID     string      `json:"run_id"`
	Root      string      `json:"root"`
	Node      *NodeRecord `json:"node,omitempty"`
	Edge      *EdgeRecord `json:"edge,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Publisher writes graphs to JetStream, one message per node and edge.
// Messages carry a deduplication ID derived from the run and the record key,
// so republishing a run is idempotent within the stream's duplicate window.
type Publisher struct {
	js     jetstream.JetStream
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a publisher. An empty prefix uses DefaultSubjectPrefix.
func NewPublisher(js jetstream.JetStream, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{js: js, prefix: prefix, logger: logger}
}

// EnsureStream creates or updates the stream capturing the publisher's
// subjects.
func (p *Publisher) EnsureStream(ctx context.Context, name string) (jetstream.Stream, error) {
	if name == "" {
		name = DefaultStream
	}
	// CreateOrUpdateStream is idempotent
	s, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: "Enriched code graph nodes and edges",
		Subjects:    []string{p.prefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Duplicates:  2 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", name, err)
	}
	return s, nil
}

// NodeSubject is the subject a node of lang is published on.
func (p *Publisher) NodeSubject(n NodeRecord) string {
	return p.prefix + ".node." + token(string(n.Language))
}

// EdgeSubject is the subject an edge is published on, partitioned by type
// and importance so consumers can subscribe to critical edges only.
func (p *Publisher) EdgeSubject(e EdgeRecord) string {
	return p.prefix + ".edge." + token(string(e.Type)) + "." + token(string(e.Importance))
}

// Publish sends every node then every edge of g, tagged with runID.
func (p *Publisher) Publish(ctx context.Context, runID, root string, g Graph) error {
	now := time.Now().UTC()

	for i := range g.Nodes {
		n := g.Nodes[i]
		msg := IngestMessage{RunID: runID, Root: root, Node: &n, UpdatedAt: now}
		if err := p.publish(ctx, p.NodeSubject(n), runID+"/n/"+n.ID, msg); err != nil {
			return fmt.Errorf("publish node %s: %w", n.ID, err)
		}
	}
	for i := range g.Edges {
		e := g.Edges[i]
		msg := IngestMessage{RunID: runID, Root: root, Edge: &e, UpdatedAt: now}
		if err := p.publish(ctx, p.EdgeSubject(e), runID+"/e/"+e.Key(), msg); err != nil {
			return fmt.Errorf("publish edge %s: %w", e.Key(), err)
		}
	}

	p.logger.Info("Published graph",
		"run_id", runID,
		"root", root,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges))
	return nil
}

func (p *Publisher) publish(ctx context.Context, subject, msgID string, msg IngestMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	out := nats.NewMsg(subject)
	out.Data = data
	out.Header.Set(jetstream.MsgIDHeader, msgID)
	_, err = p.js.PublishMsg(ctx, out)
	return err
}

// token makes s safe as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, strings.ToLower(s))
}
