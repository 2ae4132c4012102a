// Package enrichment runs extraction over a set of files and scores the
// resulting graph as one unit.
package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
)

// File is one source file handed to the pipeline.
type File struct {
	Path string
	// Language overrides extension-based detection when set.
	Language ontology.Language
	Content  []byte
}

// FileReport summarises the extraction of one file.
type FileReport struct {
	Path      string            `json:"path" yaml:"path"`
	Language  ontology.Language `json:"language,omitempty" yaml:"language,omitempty"`
	Strategy  ast.Strategy      `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Symbols   int               `json:"symbols" yaml:"symbols"`
	Relations int               `json:"relations" yaml:"relations"`
	Cached    bool              `json:"cached,omitempty" yaml:"cached,omitempty"`
	Skipped   bool              `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Result is the enriched graph of one run.
type Result struct {
	Symbols     []ast.Symbol                   `json:"symbols" yaml:"symbols"`
	Relations   []edgemetrics.EnrichedRelation `json:"relations" yaml:"relations"`
	Statistics  edgemetrics.Statistics         `json:"statistics" yaml:"statistics"`
	Diagnostics []ast.Diagnostic               `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Files       []FileReport                   `json:"files" yaml:"files"`

	// Resolved counts relation endpoints bound across files.
	Resolved int `json:"resolved" yaml:"resolved"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics instruments the pipeline.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline dispatches files to extractors and enriches the combined relation
// set. It is safe for concurrent use; runs share only the parse cache.
type Pipeline struct {
	extractors *ast.Registry
	ontologies *ontology.Registry
	engine     *edgemetrics.Engine
	cfg        Config
	cache      *lru.Cache[string, *ast.ParseResult]
	metrics    *Metrics
}

// New creates a pipeline over extractors. ontologies supplies the tables used
// for enforcement and scoring; when nil the built-in ontologies are used.
func New(extractors *ast.Registry, ontologies *ontology.Registry, cfg Config, opts ...Option) (*Pipeline, error) {
	if extractors == nil {
		return nil, fmt.Errorf("extractor registry is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if ontologies == nil {
		ontologies = ontology.WithDefaults()
	}

	p := &Pipeline{
		extractors: extractors,
		ontologies: ontologies,
		engine:     edgemetrics.New(ontologies),
		cfg:        cfg,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *ast.ParseResult](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create parse cache: %w", err)
		}
		p.cache = cache
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run extracts and enriches files with the configured metric options.
func (p *Pipeline) Run(ctx context.Context, files []File) (*Result, error) {
	return p.RunWith(ctx, files, p.cfg.Metrics)
}

// RunWith extracts and enriches files with opts. Per-file problems become
// diagnostics on the result; only cancellation of ctx is returned as an error.
func (p *Pipeline) RunWith(ctx context.Context, files []File, opts edgemetrics.Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metric options: %w", err)
	}
	start := time.Now()

	results := make([]*ast.ParseResult, len(files))
	reports := make([]FileReport, len(files))
	skipped := make([]*ast.Diagnostic, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.workers())
	for i, f := range files {
		g.Go(func() error {
			reports[i] = FileReport{Path: f.Path}
			e, lang, diag := p.route(f)
			if diag != nil {
				skipped[i] = diag
				reports[i].Skipped = true
				return nil
			}
			r, cached := p.extract(gCtx, e, lang, f)
			results[i] = r
			reports[i] = FileReport{
				Path:      f.Path,
				Language:  lang,
				Strategy:  r.Strategy,
				Symbols:   len(r.Symbols),
				Relations: len(r.Relations),
				Cached:    cached,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrichment canceled: %w", err)
	}

	out := &Result{Files: reports}
	var relations []ast.Relation
	for i, r := range results {
		if skipped[i] != nil {
			out.Diagnostics = append(out.Diagnostics, *skipped[i])
			continue
		}
		out.Symbols = append(out.Symbols, r.Symbols...)
		relations = append(relations, r.Relations...)
		out.Diagnostics = append(out.Diagnostics, r.Diagnostics...)
	}

	if p.cfg.ResolveReferences {
		out.Resolved = ast.NewNameIndex(out.Symbols).ResolveRelations(relations)
	}
	if p.cfg.FileTree {
		folders, contains := fileTree(results)
		out.Symbols = append(out.Symbols, folders...)
		relations = append(relations, contains...)
	}
	if out.Symbols == nil {
		out.Symbols = []ast.Symbol{}
	}

	out.Relations = p.engine.Enrich(relations, opts)
	out.Statistics = edgemetrics.Summarize(out.Relations)
	p.observe(out, time.Since(start))
	return out, nil
}

// route picks the extractor for f, or returns the diagnostic explaining why
// the file is skipped.
func (p *Pipeline) route(f File) (ast.Extractor, ontology.Language, *ast.Diagnostic) {
	lang := f.Language
	if lang == "" {
		var ok bool
		lang, ok = p.extractors.LanguageForPath(f.Path)
		if !ok {
			d := ast.Error(ast.KindLanguageNotSupported, f.Path, "no language is mapped to this file")
			return nil, "", &d
		}
	}
	e, err := p.extractors.Get(lang)
	if err != nil {
		d := ast.Error(ast.KindLanguageNotSupported, f.Path, "%v", err)
		return nil, "", &d
	}
	return e, lang, nil
}

// extract runs e on f, consulting the cache first. The returned result is
// owned by the caller.
func (p *Pipeline) extract(ctx context.Context, e ast.Extractor, lang ontology.Language, f File) (*ast.ParseResult, bool) {
	key := cacheKey(lang, f.Path, f.Content)
	if p.cache != nil {
		if r, ok := p.cache.Get(key); ok {
			p.countCache("hit")
			return clone(r), true
		}
		p.countCache("miss")
	}

	fctx := ctx
	if p.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, p.cfg.FileTimeout)
		defer cancel()
	}

	start := time.Now()
	r := parse(fctx, e, lang, f)
	if p.metrics != nil {
		p.metrics.ExtractSeconds.WithLabelValues(string(lang)).Observe(time.Since(start).Seconds())
	}

	// Extractors enforce their own ontology; the registry's table is the
	// authority for the graph.
	ont, err := p.ontologies.Get(lang)
	if err != nil {
		ont = e.Ontology()
	}
	ast.Enforce(ont, r)

	if p.cache != nil && !ast.HasDiagnostic(r.Diagnostics, ast.KindCanceled) &&
		!ast.HasDiagnostic(r.Diagnostics, ast.KindExtractorFailed) {
		p.cache.Add(key, clone(r))
	}
	return r, false
}

// parse runs e on f. A panic or a nil result becomes an empty result carrying
// an error diagnostic, so one broken extractor only loses its own file.
func parse(ctx context.Context, e ast.Extractor, lang ontology.Language, f File) (r *ast.ParseResult) {
	defer func() {
		if v := recover(); v != nil {
			r = failed(lang, f.Path, "extractor panicked: %v", v)
		}
	}()
	r = e.Parse(ctx, f.Content, f.Path)
	if r == nil {
		r = failed(lang, f.Path, "extractor returned no result")
	}
	return r
}

func failed(lang ontology.Language, path, format string, args ...any) *ast.ParseResult {
	return &ast.ParseResult{
		Language:    lang,
		Path:        path,
		Symbols:     []ast.Symbol{},
		Relations:   []ast.Relation{},
		Diagnostics: []ast.Diagnostic{ast.Error(ast.KindExtractorFailed, path, format, args...)},
	}
}

func (p *Pipeline) countCache(result string) {
	if p.metrics != nil {
		p.metrics.CacheRequests.WithLabelValues(result).Inc()
	}
}

func (p *Pipeline) observe(out *Result, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunSeconds.Observe(elapsed.Seconds())
	for _, f := range out.Files {
		if f.Skipped {
			continue
		}
		p.metrics.FilesTotal.WithLabelValues(string(f.Language), string(f.Strategy)).Inc()
	}
	for _, d := range out.Diagnostics {
		p.metrics.DiagnosticsTotal.WithLabelValues(string(d.Kind), string(d.Severity)).Inc()
	}
	for level, n := range out.Statistics.Importance {
		p.metrics.RelationsTotal.WithLabelValues(string(level)).Add(float64(n))
	}
}

func cacheKey(lang ontology.Language, path string, content []byte) string {
	sum := sha256.Sum256(content)
	return string(lang) + "\x00" + path + "\x00" + hex.EncodeToString(sum[:])
}

// clone copies the slices of r that later stages rewrite.
func clone(r *ast.ParseResult) *ast.ParseResult {
	c := *r
	c.Symbols = append([]ast.Symbol(nil), r.Symbols...)
	c.Relations = append([]ast.Relation(nil), r.Relations...)
	c.Diagnostics = append([]ast.Diagnostic(nil), r.Diagnostics...)
	return &c
}
