package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldIgnore(t *testing.T) {
	require.True(t, ShouldIgnore("/tmp/.hidden.md"))
	require.True(t, ShouldIgnore("/tmp/#foo#"))
	require.True(t, ShouldIgnore("/tmp/foo.swp"))
	require.True(t, ShouldIgnore("/tmp/foo.swx"))
	require.True(t, ShouldIgnore("/tmp/foo~"))
	require.True(t, ShouldIgnore("/tmp/.#lockfile"))
	require.True(t, ShouldIgnore("/tmp/.DS_Store"))
	require.True(t, ShouldIgnore("/tmp/Thumbs.db"))
	require.False(t, ShouldIgnore("/tmp/visible.md"))
	require.False(t, ShouldIgnore("/tmp/posts/hello.md"))
}

func TestNewSkipsMissingRoots(t *testing.T) {
	root := t.TempDir()
	w, err := New(10*time.Millisecond, root, filepath.Join(root, "no-such-theme"), "")
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
}

func TestNewWatchesSubdirectoriesButNotHidden(t *testing.T) {
	root := t.TempDir()
	posts := filepath.Join(root, "posts")
	hidden := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(posts, 0o755))
	require.NoError(t, os.MkdirAll(hidden, 0o755))

	w, err := New(10*time.Millisecond, root)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	list := w.fs.WatchList()
	require.True(t, slices.Contains(list, posts), "posts dir should be watched: %v", list)
	require.False(t, slices.Contains(list, hidden), ".git should not be watched: %v", list)
}

func TestWatcherEmitsAfterChange(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem event test")
	}

	root := t.TempDir()
	w, err := New(50*time.Millisecond, root)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "note.md"), []byte("hello"), 0o644))

	select {
	case <-w.C():
	case <-time.After(3 * time.Second):
		t.Fatal("no change signal received")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem event test")
	}

	root := t.TempDir()
	w, err := New(100*time.Millisecond, root)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "note.md"), []byte{byte(i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.C():
	case <-time.After(3 * time.Second):
		t.Fatal("no change signal received")
	}

	// Quiet period produces no further signals.
	select {
	case <-w.C():
		t.Fatal("burst produced a second signal after settling")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem event test")
	}

	root := t.TempDir()
	w, err := New(30*time.Millisecond, root)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	sub := filepath.Join(root, "drafts")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Wait until the new directory is registered before writing into it.
	require.Eventually(t, func() bool {
		return slices.Contains(w.fs.WatchList(), sub)
	}, 3*time.Second, 20*time.Millisecond, "new directory never registered")

	drainSignals(w)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "wip.md"), []byte("draft"), 0o644))

	select {
	case <-w.C():
	case <-time.After(3 * time.Second):
		t.Fatal("no signal for file in new directory")
	}
}

func drainSignals(w *Watcher) {
	for {
		select {
		case <-w.C():
		case <-time.After(150 * time.Millisecond):
			return
		}
	}
}
