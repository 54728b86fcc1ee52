package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
	"github.com/mvp-joe/javamodel/internal/indexer/externals"
	"github.com/mvp-joe/javamodel/internal/indexer/parsers"
)

// Test Plan for Processor:
// - Empty input returns empty stats
// - Files are parsed, analyzed and written in input order with aggregate stats
// - A parse failure is recorded through WriteFailure and does not stop the batch
// - Unreadable files and store failures abort the batch
// - Identical content is served from the parse cache
// - Unchanged files are skipped when SkipUnchanged is set
// - Progress is reported once per file
// - A cancelled context stops processing

// memStore records writes in memory.
type memStore struct {
	mu       sync.Mutex
	hashes   map[string]string
	units    map[string]*extraction.SourceUnit
	failures map[string]error
	order    []string
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{
		hashes:   make(map[string]string),
		units:    make(map[string]*extraction.SourceUnit),
		failures: make(map[string]error),
	}
}

func (s *memStore) FileHash(_ context.Context, path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[path]
	return h, ok, nil
}

func (s *memStore) WriteUnit(_ context.Context, path, hash string, unit *extraction.SourceUnit, _ extraction.Usages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.hashes[path] = hash
	s.units[path] = unit
	delete(s.failures, path)
	s.order = append(s.order, path)
	return nil
}

func (s *memStore) WriteFailure(_ context.Context, path, hash string, parseErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[path] = hash
	s.failures[path] = parseErr
	delete(s.units, path)
	s.order = append(s.order, path)
	return nil
}

func (s *memStore) FilePaths(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.hashes))
	for p := range s.hashes {
		paths = append(paths, p)
	}
	return paths, nil
}

func (s *memStore) DeleteFile(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, path)
	delete(s.units, path)
	delete(s.failures, path)
	return nil
}

// countingProgress counts processed files.
type countingProgress struct {
	NoOpProgressReporter
	total     int
	processed int
}

func (p *countingProgress) OnFileProcessingStart(total int)  { p.total = total }
func (p *countingProgress) OnFileProcessed(fileName string) { p.processed++ }

func newTestProcessor(t *testing.T, root string, cacheSize int, store Store, skip bool, progress ProgressReporter) Processor {
	t.Helper()
	cache, err := NewParseCache(cacheSize)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	return NewProcessor(
		ProcessorConfig{RootDir: root, Workers: 4, SkipUnchanged: skip},
		parsers.NewJavaParser(),
		externals.NewAnalyzer(externals.DefaultOptions()),
		cache,
		store,
		progress,
		nil,
	)
}

func TestProcessor_Empty(t *testing.T) {
	t.Parallel()

	p := newTestProcessor(t, t.TempDir(), 0, newMemStore(), false, nil)

	stats, results, err := p.ProcessFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
	assert.Empty(t, results)
}

func TestProcessor_ProcessFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/Shop.java":  "class Shop {\n    List<Order> orders;\n    Customer owner(Order o) { return null; }\n}\n",
		"b/Empty.java": "interface Empty {}\n",
		"c/Bad.java":   "class Bad {\n",
	})
	files := []string{"c/Bad.java", "a/Shop.java", "b/Empty.java"}

	store := newMemStore()
	progress := &countingProgress{}
	p := newTestProcessor(t, root, 0, store, false, progress)

	stats, results, err := p.ProcessFiles(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
		assert.Len(t, r.Hash, 64)
	}
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Unit)
	require.NotNil(t, results[1].Unit)
	assert.Equal(t, []string{"Customer", "Order"}, results[1].Usages.Models())

	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 2, stats.Types)
	assert.Equal(t, 1, stats.Methods)
	assert.Equal(t, 1, stats.Fields)
	assert.Equal(t, 2, stats.ExternalModels)
	assert.Positive(t, stats.ProcessingTime)

	assert.Equal(t, files, store.order)
	assert.True(t, parsers.IsCategory(store.failures["c/Bad.java"], parsers.CategoryGrammar) ||
		parsers.IsCategory(store.failures["c/Bad.java"], parsers.CategoryLexical))
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.processed)
}

func TestProcessor_CacheHits(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := "class Same { Money total; }\n"
	writeTree(t, root, map[string]string{"One.java": src, "Two.java": src})

	p := newTestProcessor(t, root, 16, newMemStore(), false, nil)

	stats, results, err := p.ProcessFiles(context.Background(), []string{"One.java"})
	require.NoError(t, err)
	assert.Zero(t, stats.CacheHits)
	assert.False(t, results[0].Cached)

	stats, results, err = p.ProcessFiles(context.Background(), []string{"Two.java"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CacheHits)
	assert.True(t, results[0].Cached)
	assert.Equal(t, []string{"Money"}, results[0].Usages.Models())
}

func TestProcessor_SkipUnchanged(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"A.java": "class A {}\n"})

	store := newMemStore()
	p := newTestProcessor(t, root, 0, store, true, nil)

	stats, _, err := p.ProcessFiles(context.Background(), []string{"A.java"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)

	stats, results, err := p.ProcessFiles(context.Background(), []string{"A.java"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Zero(t, stats.FilesProcessed)
	assert.True(t, results[0].Skipped)
	assert.Len(t, store.order, 1)

	writeTree(t, root, map[string]string{"A.java": "class A { int x; }\n"})
	stats, _, err = p.ProcessFiles(context.Background(), []string{"A.java"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.Fields)
}

func TestProcessor_Failures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"A.java": "class A {}\n"})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		p := newTestProcessor(t, root, 0, newMemStore(), false, nil)
		_, _, err := p.ProcessFiles(context.Background(), []string{"A.java", "Missing.java"})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		store.writeErr = errors.New("disk full")
		p := newTestProcessor(t, root, 0, store, false, nil)
		_, _, err := p.ProcessFiles(context.Background(), []string{"A.java"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := newTestProcessor(t, root, 0, newMemStore(), false, nil)
		_, _, err := p.ProcessFiles(ctx, []string{"A.java"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestProcessor_ManyFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := make([]string, 0, 40)
	tree := make(map[string]string, 40)
	for i := range 40 {
		name := fmt.Sprintf("pkg%d/Type%d.java", i%5, i)
		tree[name] = fmt.Sprintf("class Type%d { Dep%d dep; }\n", i, i)
		files = append(files, name)
	}
	writeTree(t, root, tree)

	store := newMemStore()
	p := newTestProcessor(t, root, 8, store, false, nil)

	stats, results, err := p.ProcessFiles(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 40, stats.FilesProcessed)
	assert.Equal(t, 40, stats.ExternalModels)
	assert.Equal(t, files, store.order)
	for i, r := range results {
		assert.Equal(t, []string{fmt.Sprintf("Dep%d", i)}, r.Usages.Models())
		assert.Equal(t, filepath.ToSlash(files[i]), r.Path)
	}
}
