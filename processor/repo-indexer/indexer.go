// Package repoindexer walks a repository, feeds its files through the
// enrichment pipeline and hands each enriched graph to a set of sinks.
package repoindexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/c360studio/semgraph/processor/enrichment"
)

// Sink receives the result of every index run.
type Sink interface {
	Consume(ctx context.Context, root string, res *enrichment.Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, root string, res *enrichment.Result) error

// Consume calls f.
func (f SinkFunc) Consume(ctx context.Context, root string, res *enrichment.Result) error {
	return f(ctx, root, res)
}

// Metrics instruments index runs.
type Metrics struct {
	Runs          *prometheus.CounterVec
	FilesIndexed  prometheus.Gauge
	GraphEdges    prometheus.Gauge
	LastRunMillis prometheus.Gauge
}

// NewMetrics creates the indexer metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semgraph",
			Subsystem: "indexer",
			Name:      "runs_total",
			Help:      "Index runs by result",
		}, []string{"result"}),
		FilesIndexed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "semgraph",
			Subsystem: "indexer",
			Name:      "files",
			Help:      "Files read by the last index run",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "semgraph",
			Subsystem: "indexer",
			Name:      "edges",
			Help:      "Enriched relations produced by the last index run",
		}),
		LastRunMillis: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "semgraph",
			Subsystem: "indexer",
			Name:      "last_run_milliseconds",
			Help:      "Duration of the last index run",
		}),
	}
}

// Indexer runs whole-repository index passes.
type Indexer struct {
	walker   *Walker
	pipeline *enrichment.Pipeline
	sinks    []Sink
	logger   *slog.Logger
	metrics  *Metrics

	mu     sync.Mutex
	hashes map[string]string // path → content hash of the last run
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithSinks adds sinks that receive every result.
func WithSinks(sinks ...Sink) IndexerOption {
	return func(ix *Indexer) {
		ix.sinks = append(ix.sinks, sinks...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = l
	}
}

// WithIndexerMetrics instruments the indexer.
func WithIndexerMetrics(m *Metrics) IndexerOption {
	return func(ix *Indexer) {
		ix.metrics = m
	}
}

// NewIndexer creates an indexer over walker and pipeline.
func NewIndexer(walker *Walker, pipeline *enrichment.Pipeline, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		walker:   walker,
		pipeline: pipeline,
		logger:   slog.Default(),
		hashes:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index walks the repository, enriches every file as one graph and passes the
// result to each sink. Sink failures are joined into the returned error after
// all sinks have run; the result is returned either way.
func (ix *Indexer) Index(ctx context.Context) (*enrichment.Result, error) {
	start := time.Now()

	files, err := ix.walker.Walk(ctx)
	if err != nil {
		ix.count("error")
		return nil, err
	}

	res, err := ix.pipeline.Run(ctx, files)
	if err != nil {
		ix.count("error")
		return nil, fmt.Errorf("enrich %s: %w", ix.walker.Root(), err)
	}
	ix.remember(files)

	elapsed := time.Since(start)
	ix.logger.Info("Indexed repository",
		"root", ix.walker.Root(),
		"files", len(files),
		"symbols", len(res.Symbols),
		"relations", len(res.Relations),
		"diagnostics", len(res.Diagnostics),
		"duration", elapsed)
	for _, d := range res.Diagnostics {
		ix.logger.Debug("Extraction diagnostic", "path", d.Path, "kind", d.Kind, "severity", d.Severity, "message", d.Message)
	}

	if ix.metrics != nil {
		ix.metrics.FilesIndexed.Set(float64(len(files)))
		ix.metrics.GraphEdges.Set(float64(len(res.Relations)))
		ix.metrics.LastRunMillis.Set(float64(elapsed.Milliseconds()))
	}

	var errs []error
	for _, s := range ix.sinks {
		if err := s.Consume(ctx, ix.walker.Root(), res); err != nil {
			ix.logger.Error("Sink failed", "root", ix.walker.Root(), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		ix.count("sink_error")
		return res, errors.Join(errs...)
	}
	ix.count("ok")
	return res, nil
}

// Changed reports whether content differs from what the last run saw at rel.
func (ix *Indexer) Changed(rel string, content []byte) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	old, ok := ix.hashes[rel]
	return !ok || old != hash(content)
}

// Known reports whether the last run indexed rel.
func (ix *Indexer) Known(rel string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	_, ok := ix.hashes[rel]
	return ok
}

func (ix *Indexer) remember(files []enrichment.File) {
	hashes := make(map[string]string, len(files))
	for _, f := range files {
		hashes[f.Path] = hash(f.Content)
	}
	ix.mu.Lock()
	ix.hashes = hashes
	ix.mu.Unlock()
}

func (ix *Indexer) count(result string) {
	if ix.metrics != nil {
		ix.metrics.Runs.WithLabelValues(result).Inc()
	}
}

func hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
