package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Gleipnir-Technology/settle/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, w watcher.Watcher) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 100)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string) {
			changes <- path
		})
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)
	return changes
}

func waitFor(t *testing.T, changes <-chan string, want string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case path := <-changes:
			if path == want {
				return
			}
		case <-timeout:
			require.FailNow(t, "no change reported", want)
		}
	}
}

func TestWatcherReportsMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	changes := startWatcher(t, watcher.Watcher{Root: dir, Extensions: []string{".go"}})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	goFile := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(goFile, []byte("package main\n"), 0o644))

	waitFor(t, changes, goFile)
	for len(changes) > 0 {
		assert.NotEqual(t, filepath.Join(dir, "notes.txt"), <-changes)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	changes := startWatcher(t, watcher.Watcher{Root: dir})

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(sub, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	waitFor(t, changes, file)
}

func TestWatcherSkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(hidden, 0o755))
	changes := startWatcher(t, watcher.Watcher{Root: dir})

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "HEAD"), []byte("x"), 0o644))
	visible := filepath.Join(dir, "visible.txt")
	require.NoError(t, os.WriteFile(visible, []byte("x"), 0o644))

	waitFor(t, changes, visible)
	for len(changes) > 0 {
		assert.NotEqual(t, filepath.Join(hidden, "HEAD"), <-changes)
	}
}
