package repoindexer

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are skipped in every walk.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/target/**",
	"**/__pycache__/**",
}

// Config controls which files of a repository are indexed.
type Config struct {
	// Root is the repository directory.
	Root string

	// Include keeps only paths matching one of these globs (relative to
	// Root, slash separated). Empty includes everything.
	Include []string

	// Exclude drops paths matching any of these globs.
	Exclude []string

	// RespectGitignore skips paths ignored by the root .gitignore.
	RespectGitignore bool

	// MaxFileBytes skips larger files. Zero disables the limit.
	MaxFileBytes int64

	// DebounceDelay is how long the watcher waits for more changes.
	DebounceDelay time.Duration
}

// DefaultConfig returns the configuration used for the current directory.
func DefaultConfig() Config {
	return Config{
		Root:             ".",
		Exclude:          DefaultExcludes,
		RespectGitignore: true,
		MaxFileBytes:     1 << 20,
		DebounceDelay:    250 * time.Millisecond,
	}
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	if c.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes must be non-negative")
	}
	if c.DebounceDelay < 0 {
		return fmt.Errorf("debounce delay must be non-negative")
	}
	return nil
}
