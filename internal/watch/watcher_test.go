package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "/x/a.PNG", Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Name: "/x/a.jpg", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/a.jpg", Op: fsnotify.Chmod}))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/output.csv", Op: fsnotify.Write}))
}

func TestWatchRerunsAfterChange(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(dir, 50*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.png"), []byte("img"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), 0, func(ctx context.Context) error { return nil }, nil)
	assert.Error(t, w.Watch(context.Background()))
}
