package repoindexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgraph/processor/ast/grammar"
	"github.com/c360studio/semgraph/processor/ast/languages"
	"github.com/c360studio/semgraph/processor/enrichment"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "build/\n*.gen.py\n")
	writeFile(t, root, "app/main.py", "from app import util\n\n\ndef main():\n    return util.helper()\n")
	writeFile(t, root, "app/util.py", "def helper():\n    return 1\n")
	writeFile(t, root, "app/schema.gen.py", "def generated():\n    pass\n")
	writeFile(t, root, "build/out.py", "def built():\n    pass\n")
	writeFile(t, root, "scripts/deploy.sh", "#!/bin/sh\nrun() { echo hi; }\nrun\n")
	writeFile(t, root, "node_modules/lib/index.js", "function vendored() {}\n")
	writeFile(t, root, "README.md", "# repo\n")
	return root
}

func newWalker(t *testing.T, cfg Config) *Walker {
	t.Helper()
	reg := languages.WithDefaults(grammar.Builtin())
	w, err := NewWalker(cfg, func(p string) bool {
		_, ok := reg.LanguageForPath(p)
		return ok
	}, nil)
	require.NoError(t, err)
	return w
}

func paths(files []enrichment.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestWalker_Walk(t *testing.T) {
	root := testRepo(t)
	cfg := DefaultConfig()
	cfg.Root = root

	files, err := newWalker(t, cfg).Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"app/main.py", "app/util.py", "scripts/deploy.sh"}, paths(files))
	assert.Equal(t, "def helper():\n    return 1\n", string(files[1].Content))
}

func TestWalker_IgnoreDisabled(t *testing.T) {
	root := testRepo(t)
	cfg := DefaultConfig()
	cfg.Root = root
	cfg.RespectGitignore = false

	files, err := newWalker(t, cfg).Walk(context.Background())
	require.NoError(t, err)
	assert.Contains(t, paths(files), "build/out.py")
	assert.Contains(t, paths(files), "app/schema.gen.py")
	assert.NotContains(t, paths(files), "node_modules/lib/index.js")
}

func TestWalker_IncludeAndSize(t *testing.T) {
	root := testRepo(t)
	writeFile(t, root, "app/big.py", "x = 1\n"+string(make([]byte, 200)))

	cfg := DefaultConfig()
	cfg.Root = root
	cfg.Include = []string{"app/**"}
	cfg.MaxFileBytes = 100

	files, err := newWalker(t, cfg).Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"app/main.py", "app/util.py"}, paths(files))
}

func TestWalker_InvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{"[unclosed"}
	_, err := NewWalker(cfg, nil, nil)
	assert.Error(t, err)
}

func TestWalker_Read(t *testing.T) {
	root := testRepo(t)
	cfg := DefaultConfig()
	cfg.Root = root
	w := newWalker(t, cfg)

	f, ok := w.Read("app/util.py")
	require.True(t, ok)
	assert.Equal(t, "app/util.py", f.Path)

	_, ok = w.Read("build/out.py")
	assert.False(t, ok)
	_, ok = w.Read("README.md")
	assert.False(t, ok)
}

func newIndexer(t *testing.T, root string, opts ...IndexerOption) *Indexer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Root = root
	p, err := enrichment.New(languages.WithDefaults(grammar.Builtin()), nil, enrichment.DefaultConfig())
	require.NoError(t, err)
	return NewIndexer(newWalker(t, cfg), p, opts...)
}

func TestIndexer_Index(t *testing.T) {
	root := testRepo(t)

	var got *enrichment.Result
	sink := SinkFunc(func(_ context.Context, r string, res *enrichment.Result) error {
		assert.Equal(t, root, r)
		got = res
		return nil
	})
	metrics := NewMetrics(prometheus.NewRegistry())
	ix := newIndexer(t, root, WithSinks(sink), WithIndexerMetrics(metrics))

	res, err := ix.Index(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Same(t, res, got)
	assert.Len(t, res.Files, 3)
	assert.NotEmpty(t, res.Relations)

	var deploy bool
	for _, s := range res.Symbols {
		if s.ID == "scripts/deploy.sh#run" {
			deploy = true
		}
	}
	assert.True(t, deploy, "bash function not indexed")

	assert.True(t, ix.Known("app/util.py"))
	assert.False(t, ix.Changed("app/util.py", []byte("def helper():\n    return 1\n")))
	assert.True(t, ix.Changed("app/util.py", []byte("def helper():\n    return 2\n")))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Runs.WithLabelValues("ok")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.FilesIndexed), 0)
}

func TestIndexer_SinkErrorsJoined(t *testing.T) {
	root := testRepo(t)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	calls := 0
	failing := func(err error) Sink {
		return SinkFunc(func(context.Context, string, *enrichment.Result) error {
			calls++
			return err
		})
	}
	ix := newIndexer(t, root, WithSinks(failing(errA), failing(nil), failing(errB)))

	res, err := ix.Index(context.Background())
	require.Error(t, err)
	assert.NotNil(t, res)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 3, calls)
}

func TestIndexer_Canceled(t *testing.T) {
	ix := newIndexer(t, testRepo(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Index(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcher_ReindexOnChange(t *testing.T) {
	root := testRepo(t)
	ix := newIndexer(t, root)
	_, err := ix.Index(context.Background())
	require.NoError(t, err)

	w, err := NewWatcher(ix, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, root, "app/extra.py", "def extra():\n    return helper()\n")

	select {
	case ev := <-w.Events():
		require.NoError(t, ev.Error)
		assert.Contains(t, ev.Changed, "app/extra.py")
		var found bool
		for _, s := range ev.Result.Symbols {
			if s.ID == "app/extra.py#extra" {
				found = true
			}
		}
		assert.True(t, found, "new file not in re-indexed graph")
	case <-time.After(5 * time.Second):
		t.Fatal("no re-index event")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresUnchanged(t *testing.T) {
	root := testRepo(t)
	ix := newIndexer(t, root)
	_, err := ix.Index(context.Background())
	require.NoError(t, err)

	w, err := NewWatcher(ix, time.Hour, nil)
	require.NoError(t, err)

	w.handleFSEvent(fsEvent(root, "app/util.py"))
	w.handleFSEvent(fsEvent(root, "README.md"))
	w.handleFSEvent(fsEvent(root, "build/out.py"))
	assert.Empty(t, w.takePending())

	writeFile(t, root, "app/util.py", "def helper():\n    return 2\n")
	w.handleFSEvent(fsEvent(root, "app/util.py"))
	assert.Equal(t, []string{"app/util.py"}, w.takePending())
}

func fsEvent(root, rel string) fsnotify.Event {
	return fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(rel)), Op: fsnotify.Write}
}
