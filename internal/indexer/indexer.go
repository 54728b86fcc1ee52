package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mvp-joe/javamodel/internal/indexer/externals"
	"github.com/mvp-joe/javamodel/internal/indexer/parsers"
	"github.com/mvp-joe/javamodel/internal/watcher"
)

// IndexStore is the storage an Indexer keeps in sync with the source tree.
type IndexStore interface {
	Store

	// FilePaths lists every stored path.
	FilePaths(ctx context.Context) ([]string, error)

	// DeleteFile removes everything stored for path.
	DeleteFile(ctx context.Context, path string) error
}

// Config contains configuration for the indexer.
type Config struct {
	// Root directory of the project to index
	RootDir string

	// Paths configuration
	CodePatterns   []string
	IgnorePatterns []string
	Extensions     []string // watched file extensions, e.g. ".java"

	// Analysis configuration
	Analysis externals.Options

	// Processing configuration
	Workers   int
	CacheSize int
}

// Indexer keeps a store in sync with the Java sources under a root directory.
type Indexer struct {
	cfg       Config
	discovery *FileDiscovery
	processor Processor
	cache     *ParseCache
	store     IndexStore
	progress  ProgressReporter
	logger    *slog.Logger
}

// New creates an indexer writing to store. The progress reporter and logger are optional.
func New(cfg Config, store IndexStore, progress ProgressReporter, logger *slog.Logger) (*Indexer, error) {
	discovery, err := NewFileDiscovery(cfg.RootDir, cfg.CodePatterns, cfg.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}

	cache, err := NewParseCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	processor := NewProcessor(
		ProcessorConfig{RootDir: cfg.RootDir, Workers: cfg.Workers, SkipUnchanged: true},
		parsers.NewJavaParser(),
		externals.NewAnalyzer(cfg.Analysis),
		cache,
		store,
		progress,
		logger,
	)

	return &Indexer{
		cfg:       cfg,
		discovery: discovery,
		processor: processor,
		cache:     cache,
		store:     store,
		progress:  progress,
		logger:    logger,
	}, nil
}

// Index processes every discovered file whose content changed since it was
// stored, and drops stored files that no longer exist.
func (idx *Indexer) Index(ctx context.Context) (*Stats, error) {
	startTime := time.Now()

	idx.progress.OnDiscoveryStart()
	files, err := idx.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	idx.progress.OnDiscoveryComplete(len(files))

	stats, _, err := idx.processor.ProcessFiles(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("processing failed: %w", err)
	}

	stored, err := idx.store.FilePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored files: %w", err)
	}
	for _, path := range stored {
		if _, found := slices.BinarySearch(files, path); found {
			continue
		}
		if err := idx.store.DeleteFile(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", path, err)
		}
		idx.logger.Debug("removed deleted file", "file", path)
	}

	stats.ProcessingTime = time.Since(startTime)
	idx.progress.OnComplete(stats)
	return stats, nil
}

// Reindex processes the given changed paths, absolute or relative to the root.
// Paths that are not indexed sources are ignored; paths that no longer exist
// are removed from the store.
func (idx *Indexer) Reindex(ctx context.Context, paths []string) (*Stats, error) {
	var changed, deleted []string

	for _, path := range paths {
		rel, ok := idx.relative(path)
		if !ok || !idx.discovery.Matches(rel) {
			continue
		}

		_, err := os.Stat(filepath.Join(idx.cfg.RootDir, rel))
		switch {
		case err == nil:
			changed = append(changed, rel)
		case errors.Is(err, fs.ErrNotExist):
			deleted = append(deleted, rel)
		default:
			return nil, fmt.Errorf("failed to stat %s: %w", rel, err)
		}
	}

	for _, rel := range deleted {
		if err := idx.store.DeleteFile(ctx, rel); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", rel, err)
		}
	}

	stats, _, err := idx.processor.ProcessFiles(ctx, changed)
	if err != nil {
		return nil, fmt.Errorf("processing failed: %w", err)
	}

	idx.logger.Info("reindexed changed files",
		"changed", len(changed),
		"deleted", len(deleted),
		"failed", stats.FilesFailed)
	return stats, nil
}

// Watch reindexes changed files until ctx is cancelled.
func (idx *Indexer) Watch(ctx context.Context) error {
	// Absolute so that event paths resolve against the root.
	root, err := filepath.Abs(idx.cfg.RootDir)
	if err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher([]string{root}, idx.cfg.Extensions, watcher.Options{
		SkipDir: func(path string) bool {
			rel, ok := idx.relative(path)
			return ok && idx.discovery.shouldIgnore(rel)
		},
		Logger: idx.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	err = fw.Start(ctx, func(files []string) {
		if _, err := idx.Reindex(ctx, files); err != nil {
			idx.logger.Error("reindex failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	idx.logger.Info("watching for changes", "root", idx.cfg.RootDir)
	<-ctx.Done()
	return nil
}

// Close releases the parse cache. The store is owned by the caller.
func (idx *Indexer) Close() error {
	idx.cache.Close()
	return nil
}

// relative converts path to a slash-separated path under the root.
func (idx *Indexer) relative(path string) (string, bool) {
	if filepath.IsAbs(path) {
		root, err := filepath.Abs(idx.cfg.RootDir)
		if err != nil {
			return "", false
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", false
		}
		path = rel
	}
	return filepath.ToSlash(filepath.Clean(path)), true
}
