// Package storage keeps enriched graph snapshots, either in a NATS KV bucket
// or in a local badger database.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semgraph/graph"
)

// Snapshot is the graph of one index run.
type Snapshot struct {
	ID        string      `json:"id"`
	Root      string      `json:"root"`
	Preset    string      `json:"preset,omitempty"`
	Files     int         `json:"files"`
	CreatedAt time.Time   `json:"created_at"`
	Graph     graph.Graph `json:"graph"`
}

// Info summarises a snapshot without its graph.
type Info struct {
	ID        string    `json:"id"`
	Root      string    `json:"root"`
	Preset    string    `json:"preset,omitempty"`
	Files     int       `json:"files"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
}

// Info returns the summary of s.
func (s *Snapshot) Info() Info {
	return Info{
		ID:        s.ID,
		Root:      s.Root,
		Preset:    s.Preset,
		Files:     s.Files,
		Nodes:     len(s.Graph.Nodes),
		Edges:     len(s.Graph.Edges),
		CreatedAt: s.CreatedAt,
	}
}

// NewSnapshot creates a snapshot with a fresh ID.
func NewSnapshot(root, preset string, files int, g graph.Graph) *Snapshot {
	return &Snapshot{
		ID:        uuid.New().String(),
		Root:      root,
		Preset:    preset,
		Files:     files,
		CreatedAt: time.Now().UTC(),
		Graph:     g,
	}
}

// ParseID validates a snapshot ID.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return u.String(), nil
}

// Store persists snapshots.
type Store interface {
	// Save stores s, assigning an ID when it has none, and returns the ID.
	Save(ctx context.Context, s *Snapshot) (string, error)
	// Get returns the snapshot with id or ErrNotFound.
	Get(ctx context.Context, id string) (*Snapshot, error)
	// List returns summaries of every snapshot, newest first.
	List(ctx context.Context) ([]Info, error)
	// Delete removes the snapshot with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

func encode(s *Snapshot) ([]byte, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	} else if _, err := ParseID(s.ID); err != nil {
		return nil, err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
}
