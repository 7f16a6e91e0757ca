package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, files []string) (*FileWatcher, chan string) {
	t.Helper()
	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)

	changed := make(chan string, 16)
	require.NoError(t, fw.Watch(files, func(path string) { changed <- path }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = fw.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = fw.Close()
	})
	return fw, changed
}

func TestWatchTriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.svg")
	require.NoError(t, os.WriteFile(path, []byte("<svg/>"), 0o644))

	_, changed := startWatcher(t, []string{path})
	require.NoError(t, os.WriteFile(path, []byte("<svg></svg>"), 0o644))

	select {
	case got := <-changed:
		want, _ := filepath.Abs(path)
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.dxf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, changed := startWatcher(t, []string{path})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.dxf"), []byte("x"), 0o644))

	select {
	case got := <-changed:
		t.Fatalf("unexpected change for %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	fw, err := NewFileWatcher(time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	err = fw.Watch([]string{filepath.Join(t.TempDir(), "missing", "a.svg")}, func(string) {})
	assert.Error(t, err)
}
