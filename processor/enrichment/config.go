package enrichment

import (
	"fmt"
	"runtime"
	"time"

	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
)

// Config tunes a Pipeline.
type Config struct {
	// Workers bounds concurrent extractions. Zero uses GOMAXPROCS.
	Workers int

	// FileTimeout bounds a single file's extraction. Zero disables it.
	FileTimeout time.Duration

	// CacheSize is the number of parse results kept between runs. Zero
	// disables the cache.
	CacheSize int

	// ResolveReferences binds bare-name targets to symbols in other files.
	ResolveReferences bool

	// FileTree adds folder symbols and folder/file CONTAINS edges.
	FileTree bool

	// Metrics are the default edge metric options for Run.
	Metrics edgemetrics.Options
}

// DefaultConfig returns a config with cross-file resolution enabled.
func DefaultConfig() Config {
	return Config{
		Workers:           runtime.GOMAXPROCS(0),
		CacheSize:         1024,
		ResolveReferences: true,
		Metrics:           edgemetrics.DefaultOptions(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.FileTimeout < 0 {
		return fmt.Errorf("file timeout must be non-negative, got %s", c.FileTimeout)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must be non-negative, got %d", c.CacheSize)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
