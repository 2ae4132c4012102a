package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/semgraph/config"
	"github.com/c360studio/semgraph/graph"
	"github.com/c360studio/semgraph/internal/natsutil"
	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
	"github.com/c360studio/semgraph/processor/ast/languages"
	"github.com/c360studio/semgraph/processor/enrichment"
	repoindexer "github.com/c360studio/semgraph/processor/repo-indexer"
	"github.com/c360studio/semgraph/storage"
)

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// Extraction
	extractors *ast.Registry
	pipeline   *enrichment.Pipeline
	registry   *prometheus.Registry
	indexing   *repoindexer.Metrics

	// NATS
	conn      *natsutil.Conn
	publisher *graph.Publisher

	// Storage
	store storage.Store
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		cfg:        cfg,
		logger:     logger,
		extractors: buildExtractors(cfg.Extraction),
		registry:   prometheus.NewRegistry(),
	}
	app.registry.MustRegister(collectors.NewGoCollector())
	app.indexing = repoindexer.NewMetrics(app.registry)

	ecfg, err := cfg.Enrichment()
	if err != nil {
		return nil, err
	}
	pipeline, err := enrichment.New(app.extractors, nil, ecfg,
		enrichment.WithMetrics(enrichment.NewMetrics(app.registry)))
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	app.pipeline = pipeline
	return app, nil
}

// buildExtractors registers the built-in extractors, hiding disabled grammars
// and keeping only the configured languages.
func buildExtractors(cfg config.ExtractionConfig) *ast.Registry {
	grammars := grammar.Without(grammar.Builtin(), cfg.DisabledGrammars...)
	if len(cfg.Languages) == 0 {
		return languages.WithDefaults(grammars)
	}
	r := ast.NewRegistry()
	for _, e := range languages.Extractors(grammars) {
		if slices.Contains(cfg.Languages, string(e.Language())) {
			r.Register(e)
		}
	}
	return r
}

// supported reports whether path would be routed to a registered extractor.
func (a *App) supported(path string) bool {
	lang, ok := a.extractors.LanguageForPath(path)
	if !ok {
		return false
	}
	_, err := a.extractors.Get(lang)
	return err == nil
}

// Connect opens the NATS connection. embedded forces an in-process server
// regardless of the configured URL.
func (a *App) Connect(embedded bool) error {
	if a.conn != nil {
		return nil
	}
	url := a.cfg.NATS.URL
	if embedded {
		url = ""
	} else if url == "" && !a.cfg.NATS.Embedded {
		return errors.New("nats.url is required when the embedded server is disabled")
	}

	conn, err := natsutil.Connect(natsutil.Options{URL: url, Name: appName, Logger: a.logger})
	if err != nil {
		return err
	}
	a.conn = conn
	return nil
}

// Publisher returns the graph publisher, creating its stream on first use.
func (a *App) Publisher(ctx context.Context) (*graph.Publisher, error) {
	if a.publisher != nil {
		return a.publisher, nil
	}
	if a.conn == nil {
		return nil, errors.New("not connected to NATS")
	}
	p := graph.NewPublisher(a.conn.JS, a.cfg.NATS.SubjectPrefix, a.logger)
	if _, err := p.EnsureStream(ctx, a.cfg.NATS.Stream); err != nil {
		return nil, err
	}
	a.publisher = p
	return p, nil
}

// OpenStore opens the configured snapshot backend. It returns nil when the
// backend is none.
func (a *App) OpenStore(ctx context.Context) (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	switch a.cfg.Storage.Backend {
	case "", config.BackendNone:
		return nil, nil
	case config.BackendBadger:
		s, err := storage.OpenBadger(storage.BadgerConfig{Path: a.cfg.Storage.Path, Logger: a.logger})
		if err != nil {
			return nil, err
		}
		a.store = s
	case config.BackendJetStream:
		if a.conn == nil {
			return nil, errors.New("jetstream storage requires a NATS connection")
		}
		s, err := storage.NewKVStore(ctx, a.conn.JS, a.cfg.NATS.KVBucket, a.logger)
		if err != nil {
			return nil, err
		}
		a.store = s
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.cfg.Storage.Backend)
	}
	return a.store, nil
}

// NewIndexer creates an indexer over root feeding sinks. Walk filters come
// from the repo section of the config. Indexers of one App share its metrics.
func (a *App) NewIndexer(root string, sinks ...repoindexer.Sink) (*repoindexer.Indexer, error) {
	icfg := a.cfg.Indexer()
	icfg.Root = root
	walker, err := repoindexer.NewWalker(icfg, a.supported, a.logger)
	if err != nil {
		return nil, err
	}
	return repoindexer.NewIndexer(walker, a.pipeline,
		repoindexer.WithSinks(sinks...),
		repoindexer.WithLogger(a.logger),
		repoindexer.WithIndexerMetrics(a.indexing),
	), nil
}

// ServeMetrics exposes the metrics registry on addr until ctx ends.
func (a *App) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close snapshot store", "error", err)
		}
	}
	if a.conn != nil {
		a.conn.Close()
	}
}

// exportSink writes each result to the configured output.
func exportSink(out OutputTarget) repoindexer.Sink {
	return repoindexer.SinkFunc(func(_ context.Context, _ string, res *enrichment.Result) error {
		return out.Write(graph.FromResult(res))
	})
}

// publishSink streams each result to JetStream under a fresh run ID.
func publishSink(p *graph.Publisher, runID func() string) repoindexer.Sink {
	return repoindexer.SinkFunc(func(ctx context.Context, root string, res *enrichment.Result) error {
		return p.Publish(ctx, runID(), root, graph.FromResult(res))
	})
}

// storeSink saves each result as a snapshot.
func storeSink(s storage.Store, preset string, logger *slog.Logger) repoindexer.Sink {
	return repoindexer.SinkFunc(func(ctx context.Context, root string, res *enrichment.Result) error {
		snap := storage.NewSnapshot(root, preset, len(res.Files), graph.FromResult(res))
		id, err := s.Save(ctx, snap)
		if err != nil {
			return err
		}
		logger.Info("Saved snapshot", "id", id, "nodes", len(snap.Graph.Nodes), "edges", len(snap.Graph.Edges))
		return nil
	})
}

// OutputTarget is where exported graphs go: a file path or stdout.
type OutputTarget struct {
	Path   string
	Format graph.Format
	Query  graph.Query
	Stdout io.Writer
}

// resolveOutput picks the export format: explicit flag, then the output
// file's extension, then the configured default.
func resolveOutput(cfg config.OutputConfig, path, format string) (OutputTarget, error) {
	if path == "" {
		path = cfg.Path
	}
	f := graph.Format(format)
	if format == "" {
		if byExt, ok := graph.FormatForPath(path); ok {
			f = byExt
		} else {
			f = graph.Format(cfg.Format)
		}
	}
	if _, ok := graph.FormatRegistry[f]; !ok {
		return OutputTarget{}, fmt.Errorf("unknown format %q, want one of %v", f, graph.Formats())
	}
	return OutputTarget{Path: path, Format: f, Stdout: os.Stdout}, nil
}

// ForRoot derives the target for one of several indexed roots: the root's
// base name is appended to the file name. Stdout is shared.
func (o OutputTarget) ForRoot(root string) OutputTarget {
	if o.Path == "" {
		return o
	}
	ext := filepath.Ext(o.Path)
	o.Path = strings.TrimSuffix(o.Path, ext) + "-" + filepath.Base(root) + ext
	return o
}

// Write exports g, replacing the output file if one is set.
func (o OutputTarget) Write(g graph.Graph) error {
	if !o.Query.Empty() {
		var err error
		if g, err = g.Apply(o.Query); err != nil {
			return err
		}
	}
	if o.Path == "" {
		return graph.Export(o.Stdout, g, o.Format)
	}
	tmp := o.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := graph.Export(f, g, o.Format); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	return os.Rename(tmp, o.Path)
}

// languageRows describes the registered extractors for the languages command.
func languageRows(r *ast.Registry) [][]string {
	exts := make(map[ontology.Language][]string)
	for _, ext := range r.Extensions() {
		lang, _ := r.LanguageForPath("x" + ext)
		exts[lang] = append(exts[lang], ext)
	}
	var rows [][]string
	for _, lang := range r.Languages() {
		e, err := r.Get(lang)
		if err != nil {
			continue
		}
		ont := e.Ontology()
		rows = append(rows, []string{
			string(lang),
			string(e.Strategy()),
			fmt.Sprint(exts[lang]),
			ont.ScopeSeparator,
			fmt.Sprintf("%d", len(ont.NodeKinds)),
			fmt.Sprintf("%d", len(ont.RelationKinds)),
			ont.Description,
		})
	}
	return rows
}
