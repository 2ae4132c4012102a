package repoindexer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semgraph/processor/enrichment"
)

// WatchEvent reports one re-index triggered by file changes.
type WatchEvent struct {
	// Changed lists the relative paths that triggered the run.
	Changed []string

	// Result is the enriched graph, nil when Error is set.
	Result *enrichment.Result

	Error error
}

// Watcher re-indexes the whole repository when indexed files change. Changes
// are debounced; a batch whose files hash the same as in the last run is
// dropped.
type Watcher struct {
	indexer *Indexer
	walker  *Walker
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	delay   time.Duration

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // relative path → most recent operation

	events chan WatchEvent
}

// NewWatcher creates a watcher that drives ix.
func NewWatcher(ix *Indexer, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &Watcher{
		indexer: ix,
		walker:  ix.walker,
		fsw:     fsw,
		logger:  logger,
		delay:   delay,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan WatchEvent, 16),
	}, nil
}

// Events returns the channel of re-index events. It is closed when Run returns.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Run watches until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.fsw.Close()

	if err := w.addWatchesRecursive(w.walker.Root()); err != nil {
		return err
	}
	w.logger.Info("File watcher started", "root", w.walker.Root(), "debounce", w.delay)

	ticker := time.NewTicker(w.delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.rel(path); rel != "." && w.walker.Skip(rel, true) {
			return filepath.SkipDir
		}
		w.watch(path)
		return nil
	})
}

func (w *Watcher) watch(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("Failed to watch directory", "path", dir, "error", err)
		return
	}
	w.logger.Debug("Watching directory", "path", dir)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.walker.Root(), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	rel := w.rel(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.walker.Skip(rel, true) {
				w.watch(event.Name)
			}
			return
		}
	}
	if !w.walker.Accept(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", rel, "op", event.Op.String())
}

// takePending returns the changed paths that differ from the last run and
// clears the pending set.
func (w *Watcher) takePending() []string {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for rel, op := range pending {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			if w.indexer.Known(rel) {
				changed = append(changed, rel)
			}
			continue
		}
		f, ok := w.walker.Read(rel)
		if !ok {
			if w.indexer.Known(rel) {
				changed = append(changed, rel)
			}
			continue
		}
		if w.indexer.Changed(rel, f.Content) {
			changed = append(changed, rel)
		}
	}
	sort.Strings(changed)
	return changed
}

func (w *Watcher) flushPending(ctx context.Context) {
	changed := w.takePending()
	if len(changed) == 0 {
		return
	}

	res, err := w.indexer.Index(ctx)
	if ctx.Err() != nil {
		return
	}
	w.send(WatchEvent{Changed: changed, Result: res, Error: err})
}

func (w *Watcher) send(event WatchEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("Event channel full, dropping event", "changed", len(event.Changed))
	}
}
