package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, opts Options) <-chan []string {
	t.Helper()
	batches := make(chan []string, 8)
	w, err := NewWatcher([]string{root}, opts, func(changed []string) error {
		batches <- changed
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return batches
}

func next(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

func TestWatcherReportsMatchingFiles(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond, Extensions: []string{".php"}})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "A.php"), []byte("<?php"), 0o644))

	assert.Equal(t, []string{filepath.Join(root, "A.php")}, next(t, batches))
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond, Extensions: []string{".php"}})

	dir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(dir, 0o755))
	// give the watcher a moment to register the new directory
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.php"), []byte("<?php"), 0o644))

	assert.Contains(t, next(t, batches), filepath.Join(dir, "B.php"))
}

func TestWatcherSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	vendor := filepath.Join(root, "vendor")
	require.NoError(t, os.Mkdir(vendor, 0o755))

	batches := startWatcher(t, root, Options{
		Debounce:   50 * time.Millisecond,
		Extensions: []string{".php"},
		Skip:       func(rel string) bool { return rel == "vendor" },
	})

	require.NoError(t, os.WriteFile(filepath.Join(vendor, "V.php"), []byte("<?php"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "C.php"), []byte("<?php"), 0o644))

	assert.Equal(t, []string{filepath.Join(root, "C.php")}, next(t, batches))
}

func TestNewWatcherMissingRoot(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, Options{}, func([]string) error { return nil })
	assert.Error(t, err)
}
