package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher creates watcher successfully with valid directories
// - NewFileWatcher returns error with invalid directory
// - A file change fires the callback after the debounce period
// - Rapid changes to several files are batched, deduplicated and sorted
// - Pause accumulates events and Resume delivers them
// - Only monitored extensions trigger the callback
// - Skipped directories are not watched
// - New directories are watched recursively
// - Stop() is idempotent and safe to call concurrently

const testDebounce = 50 * time.Millisecond

// collector records callback batches.
type collector struct {
	mu      sync.Mutex
	batches [][]string
	fired   chan struct{}
}

func newCollector() *collector {
	return &collector{fired: make(chan struct{}, 16)}
}

func (c *collector) callback(files []string) {
	c.mu.Lock()
	c.batches = append(c.batches, files)
	c.mu.Unlock()
	c.fired <- struct{}{}
}

func (c *collector) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-c.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not called")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches[len(c.batches)-1]
}

func (c *collector) assertQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-c.fired:
		t.Fatal("unexpected callback")
	case <-time.After(d):
	}
}

func startWatcher(t *testing.T, dir string, opts Options) (FileWatcher, *collector) {
	t.Helper()
	opts.Debounce = testDebounce
	fw, err := NewFileWatcher([]string{dir}, []string{".java"}, opts)
	require.NoError(t, err)
	t.Cleanup(func() { fw.Stop() })

	c := newCollector()
	require.NoError(t, fw.Start(context.Background(), c.callback))
	return fw, c
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher([]string{t.TempDir()}, []string{".java"}, Options{})
	require.NoError(t, err)
	require.NotNil(t, fw)
	require.NoError(t, fw.Stop())
}

func TestNewFileWatcher_InvalidDirectory(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nonexistent")}, []string{".java"}, Options{})
	assert.Error(t, err)
	assert.Nil(t, fw)
}

func TestFileWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, c := startWatcher(t, dir, Options{})

	file := filepath.Join(dir, "Main.java")
	writeFile(t, file, "class Main {}")

	assert.Equal(t, []string{file}, c.wait(t))
}

func TestFileWatcher_BatchesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, c := startWatcher(t, dir, Options{})

	b := filepath.Join(dir, "B.java")
	a := filepath.Join(dir, "A.java")
	writeFile(t, b, "class B {}")
	writeFile(t, a, "class A {}")
	writeFile(t, b, "class B { int x; }")

	assert.Equal(t, []string{a, b}, c.wait(t))
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fw, c := startWatcher(t, dir, Options{})

	fw.Pause()
	file := filepath.Join(dir, "Paused.java")
	writeFile(t, file, "class Paused {}")
	c.assertQuiet(t, 4*testDebounce)

	fw.Resume()
	assert.Equal(t, []string{file}, c.wait(t))
}

func TestFileWatcher_ExtensionFiltering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, c := startWatcher(t, dir, Options{})

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	c.assertQuiet(t, 4*testDebounce)

	file := filepath.Join(dir, "Kept.java")
	writeFile(t, file, "class Kept {}")
	assert.Equal(t, []string{file}, c.wait(t))
}

func TestFileWatcher_SkipDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.MkdirAll(target, 0755))

	_, c := startWatcher(t, dir, Options{SkipDir: func(path string) bool {
		return filepath.Base(path) == "target"
	}})

	writeFile(t, filepath.Join(target, "Generated.java"), "class Generated {}")
	c.assertQuiet(t, 4*testDebounce)
}

func TestFileWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, c := startWatcher(t, dir, Options{})

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0755))
	// Give the watcher time to register the new directory
	time.Sleep(2 * testDebounce)

	file := filepath.Join(sub, "Nested.java")
	writeFile(t, file, "class Nested {}")
	assert.Contains(t, c.wait(t), file)
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher([]string{t.TempDir()}, []string{".java"}, Options{})
	require.NoError(t, err)
	require.NoError(t, fw.Start(context.Background(), func([]string) {}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fw.Stop()
		}()
	}
	wg.Wait()
}
