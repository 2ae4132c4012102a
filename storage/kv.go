package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the KV bucket snapshots are kept in.
const DefaultBucket = "SEMGRAPH_SNAPSHOTS"

// KVStore keeps snapshots in a JetStream key-value bucket keyed by ID.
type KVStore struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// NewKVStore opens bucket, creating it if it doesn't exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if logger == nil {
		logger = slog.Default()
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &KVStore{kv: kv, logger: logger}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	return js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Semgraph enriched graph snapshots",
		History:     1,
	})
}

// Save stores s under its ID.
func (s *KVStore) Save(ctx context.Context, snap *Snapshot) (string, error) {
	data, err := encode(snap)
	if err != nil {
		return "", err
	}
	if _, err := s.kv.Put(ctx, snap.ID, data); err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	return snap.ID, nil
}

// Get retrieves a snapshot by ID.
func (s *KVStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	key, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return decode(entry.Value())
}

// List returns all snapshots, newest first. Entries that fail to load are
// skipped.
func (s *KVStore) List(ctx context.Context) ([]Info, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}

	infos := make([]Info, 0, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Failed to load snapshot", "id", key, "error", err)
			continue
		}
		snap, err := decode(entry.Value())
		if err != nil {
			s.logger.Warn("Failed to decode snapshot", "id", key, "error", err)
			continue
		}
		infos = append(infos, snap.Info())
	}
	sortInfos(infos)
	return infos, nil
}

// Delete removes a snapshot.
func (s *KVStore) Delete(ctx context.Context, id string) error {
	key, err := ParseID(id)
	if err != nil {
		return err
	}
	if _, err := s.kv.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get snapshot: %w", err)
	}
	if err := s.kv.Purge(ctx, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the connection belongs to the caller.
func (s *KVStore) Close() error {
	return nil
}
