// Package config provides configuration loading and management for semgraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semgraph/graph"
	"github.com/c360studio/semgraph/ontology"
	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
	"github.com/c360studio/semgraph/processor/enrichment"
	repoindexer "github.com/c360studio/semgraph/processor/repo-indexer"
)

// Config represents the complete semgraph configuration
type Config struct {
	Repo       RepoConfig       `yaml:"repo"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Weighting  WeightingConfig  `yaml:"weighting"`
	NATS       NATSConfig       `yaml:"nats"`
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage"`
}

// RepoConfig selects the files to index
type RepoConfig struct {
	// Path is the repository root path (auto-detected from git if empty)
	Path             string        `yaml:"path"`
	Include          []string      `yaml:"include,omitempty"`
	Exclude          []string      `yaml:"exclude,omitempty"`
	RespectGitignore bool          `yaml:"respect_gitignore"`
	MaxFileBytes     int64         `yaml:"max_file_bytes"`
	Debounce         time.Duration `yaml:"debounce"`
}

// ExtractionConfig tunes the extractors and the worker pool
type ExtractionConfig struct {
	Workers     int           `yaml:"workers"`
	FileTimeout time.Duration `yaml:"file_timeout"`
	CacheSize   int           `yaml:"cache_size"`
	// DisabledGrammars forces the pattern strategy for these grammars.
	DisabledGrammars []string `yaml:"disabled_grammars,omitempty"`
	// Languages restricts indexing to these languages (empty = all)
	Languages []string `yaml:"languages,omitempty"`
}

// WeightingConfig configures edge metrics
type WeightingConfig struct {
	// Preset names a dimension weight preset; Dimensions overrides it when set.
	Preset            string                        `yaml:"preset"`
	Dimensions        *edgemetrics.DimensionWeights `yaml:"dimensions,omitempty"`
	Thresholds        *edgemetrics.Thresholds       `yaml:"thresholds,omitempty"`
	Smoothing         float64                       `yaml:"smoothing"` // 0 disables
	CentralityCap     float64                       `yaml:"centrality_cap"`
	DepthCap          float64                       `yaml:"depth_cap"`
	ResolveReferences bool                          `yaml:"resolve_references"`
	FileTree          bool                          `yaml:"file_tree"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded      bool   `yaml:"embedded"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Stream        string `yaml:"stream"`
	KVBucket      string `yaml:"kv_bucket"`
}

// OutputConfig configures file export
type OutputConfig struct {
	// Path of the export file (empty = stdout)
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// StorageConfig selects a snapshot backend
type StorageConfig struct {
	// Backend is none, badger or jetstream
	Backend string `yaml:"backend"`
	// Path is the badger database directory
	Path string `yaml:"path"`
}

// Storage backends.
const (
	BackendNone      = "none"
	BackendBadger    = "badger"
	BackendJetStream = "jetstream"
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	idx := repoindexer.DefaultConfig()
	return &Config{
		Repo: RepoConfig{
			Path:             "", // Auto-detect
			Exclude:          slices.Clone(idx.Exclude),
			RespectGitignore: idx.RespectGitignore,
			MaxFileBytes:     idx.MaxFileBytes,
			Debounce:         idx.DebounceDelay,
		},
		Extraction: ExtractionConfig{
			Workers:   0, // GOMAXPROCS
			CacheSize: 1024,
		},
		Weighting: WeightingConfig{
			Preset:            "default",
			CentralityCap:     edgemetrics.DefaultCentralityCap,
			DepthCap:          edgemetrics.DefaultDepthCap,
			ResolveReferences: true,
		},
		NATS: NATSConfig{
			URL:           "",
			Embedded:      true,
			SubjectPrefix: graph.DefaultSubjectPrefix,
			Stream:        graph.DefaultStream,
			KVBucket:      "SEMGRAPH_SNAPSHOTS",
		},
		Output: OutputConfig{
			Format: string(graph.FormatJSON),
		},
		Storage: StorageConfig{
			Backend: BackendNone,
			Path:    ".semgraph/snapshots",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Repo.MaxFileBytes < 0 {
		return fmt.Errorf("repo.max_file_bytes must be non-negative")
	}
	if c.Extraction.Workers < 0 {
		return fmt.Errorf("extraction.workers must be non-negative")
	}
	if c.Extraction.CacheSize < 0 {
		return fmt.Errorf("extraction.cache_size must be non-negative")
	}
	for _, name := range c.Extraction.Languages {
		if _, ok := ontology.ParseLanguage(name); !ok {
			return fmt.Errorf("extraction.languages: unknown language %q", name)
		}
	}
	if _, err := c.MetricOptions(); err != nil {
		return fmt.Errorf("weighting: %w", err)
	}
	if _, ok := graph.FormatRegistry[graph.Format(c.Output.Format)]; !ok {
		return fmt.Errorf("output.format must be one of %v", graph.Formats())
	}
	switch c.Storage.Backend {
	case "", BackendNone, BackendJetStream:
	case BackendBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("storage.backend must be none, badger or jetstream, got %q", c.Storage.Backend)
	}
	return nil
}

// MetricOptions builds edge metric options from the weighting section.
func (c *Config) MetricOptions() (edgemetrics.Options, error) {
	opts := edgemetrics.DefaultOptions()
	if c.Weighting.Preset != "" {
		w, err := edgemetrics.Preset(c.Weighting.Preset)
		if err != nil {
			return opts, err
		}
		opts.Weights = w
	}
	if c.Weighting.Dimensions != nil {
		opts.Weights = *c.Weighting.Dimensions
	}
	if c.Weighting.Thresholds != nil {
		opts.Thresholds = *c.Weighting.Thresholds
	}
	opts.Smoothing = c.Weighting.Smoothing
	opts.CentralityCap = c.Weighting.CentralityCap
	opts.DepthCap = c.Weighting.DepthCap
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Enrichment builds the pipeline configuration.
func (c *Config) Enrichment() (enrichment.Config, error) {
	opts, err := c.MetricOptions()
	if err != nil {
		return enrichment.Config{}, err
	}
	return enrichment.Config{
		Workers:           c.Extraction.Workers,
		FileTimeout:       c.Extraction.FileTimeout,
		CacheSize:         c.Extraction.CacheSize,
		ResolveReferences: c.Weighting.ResolveReferences,
		FileTree:          c.Weighting.FileTree,
		Metrics:           opts,
	}, nil
}

// Indexer builds the repository walker configuration.
func (c *Config) Indexer() repoindexer.Config {
	return repoindexer.Config{
		Root:             c.Repo.Path,
		Include:          c.Repo.Include,
		Exclude:          c.Repo.Exclude,
		RespectGitignore: c.Repo.RespectGitignore,
		MaxFileBytes:     c.Repo.MaxFileBytes,
		DebounceDelay:    c.Repo.Debounce,
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.mergeFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile decodes path over c. Keys absent from the file keep their
// current values, so false and zero can be set explicitly.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Booleans cannot be cleared this way; use a config file.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Repo
	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}
	if len(other.Repo.Include) > 0 {
		c.Repo.Include = other.Repo.Include
	}
	if len(other.Repo.Exclude) > 0 {
		c.Repo.Exclude = other.Repo.Exclude
	}
	if other.Repo.MaxFileBytes != 0 {
		c.Repo.MaxFileBytes = other.Repo.MaxFileBytes
	}
	if other.Repo.Debounce != 0 {
		c.Repo.Debounce = other.Repo.Debounce
	}

	// Extraction
	if other.Extraction.Workers != 0 {
		c.Extraction.Workers = other.Extraction.Workers
	}
	if other.Extraction.FileTimeout != 0 {
		c.Extraction.FileTimeout = other.Extraction.FileTimeout
	}
	if other.Extraction.CacheSize != 0 {
		c.Extraction.CacheSize = other.Extraction.CacheSize
	}
	if len(other.Extraction.DisabledGrammars) > 0 {
		c.Extraction.DisabledGrammars = other.Extraction.DisabledGrammars
	}
	if len(other.Extraction.Languages) > 0 {
		c.Extraction.Languages = other.Extraction.Languages
	}

	// Weighting
	if other.Weighting.Preset != "" {
		c.Weighting.Preset = other.Weighting.Preset
	}
	if other.Weighting.Dimensions != nil {
		c.Weighting.Dimensions = other.Weighting.Dimensions
	}
	if other.Weighting.Thresholds != nil {
		c.Weighting.Thresholds = other.Weighting.Thresholds
	}
	if other.Weighting.Smoothing != 0 {
		c.Weighting.Smoothing = other.Weighting.Smoothing
	}
	if other.Weighting.CentralityCap != 0 {
		c.Weighting.CentralityCap = other.Weighting.CentralityCap
	}
	if other.Weighting.DepthCap != 0 {
		c.Weighting.DepthCap = other.Weighting.DepthCap
	}
	if other.Weighting.FileTree {
		c.Weighting.FileTree = true
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
	if other.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = other.NATS.SubjectPrefix
	}
	if other.NATS.Stream != "" {
		c.NATS.Stream = other.NATS.Stream
	}
	if other.NATS.KVBucket != "" {
		c.NATS.KVBucket = other.NATS.KVBucket
	}

	// Output
	if other.Output.Path != "" {
		c.Output.Path = other.Output.Path
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
}
