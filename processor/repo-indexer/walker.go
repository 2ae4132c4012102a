package repoindexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/c360studio/semgraph/processor/enrichment"
)

// Walker lists the indexable files of a repository.
type Walker struct {
	cfg       Config
	supported func(path string) bool
	gitignore *ignore.GitIgnore
	logger    *slog.Logger
}

// NewWalker creates a walker for cfg.Root. supported filters files by path;
// nil accepts every file.
func NewWalker(cfg Config, supported func(path string) bool, logger *slog.Logger) (*Walker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if supported == nil {
		supported = func(string) bool { return true }
	}

	w := &Walker{cfg: cfg, supported: supported, logger: logger}
	if cfg.RespectGitignore {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(cfg.Root, ".gitignore"))
		switch {
		case err == nil:
			w.gitignore = gi
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read .gitignore: %w", err)
		}
	}
	return w, nil
}

// Root returns the walked directory.
func (w *Walker) Root() string {
	return w.cfg.Root
}

// Skip reports whether rel (slash separated, relative to the root) is
// excluded by the configured globs or the gitignore.
func (w *Walker) Skip(rel string, dir bool) bool {
	probe := rel
	if dir {
		probe = rel + "/"
	}
	for _, p := range w.cfg.Exclude {
		if doublestar.MatchUnvalidated(p, rel) || doublestar.MatchUnvalidated(p, probe) {
			return true
		}
	}
	if w.gitignore != nil && w.gitignore.MatchesPath(probe) {
		return true
	}
	return false
}

func (w *Walker) included(rel string) bool {
	if len(w.cfg.Include) == 0 {
		return true
	}
	for _, p := range w.cfg.Include {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// Accept reports whether the file at rel should be indexed.
func (w *Walker) Accept(rel string) bool {
	return w.included(rel) && !w.Skip(rel, false) && w.supported(rel)
}

// Walk reads every accepted file under the root. Paths on the returned files
// are relative to the root and slash separated, sorted.
func (w *Walker) Walk(ctx context.Context) ([]enrichment.File, error) {
	var files []enrichment.File

	err := filepath.WalkDir(w.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Failed to walk path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(w.cfg.Root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if w.Skip(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !w.Accept(rel) {
			return nil
		}

		f, ok := w.read(path, rel)
		if ok {
			files = append(files, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", w.cfg.Root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Read loads the single file at rel, applying the same filters as Walk.
func (w *Walker) Read(rel string) (enrichment.File, bool) {
	rel = filepath.ToSlash(rel)
	if !w.Accept(rel) {
		return enrichment.File{}, false
	}
	return w.read(filepath.Join(w.cfg.Root, filepath.FromSlash(rel)), rel)
}

func (w *Walker) read(path, rel string) (enrichment.File, bool) {
	info, err := os.Stat(path)
	if err != nil {
		w.logger.Warn("Failed to stat file", "path", rel, "error", err)
		return enrichment.File{}, false
	}
	if w.cfg.MaxFileBytes > 0 && info.Size() > w.cfg.MaxFileBytes {
		w.logger.Debug("Skipping large file", "path", rel, "size", info.Size())
		return enrichment.File{}, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("Failed to read file", "path", rel, "error", err)
		return enrichment.File{}, false
	}
	return enrichment.File{Path: rel, Content: content}, true
}
