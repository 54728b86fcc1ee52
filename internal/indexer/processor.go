package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// Parser builds the structural model of one compilation unit.
type Parser interface {
	Parse(source []byte) (*extraction.SourceUnit, error)
}

// Analyzer builds the external usage map of a parsed unit.
type Analyzer interface {
	Analyze(unit *extraction.SourceUnit) extraction.Usages
}

// Store persists processing results.
type Store interface {
	// FileHash returns the content hash recorded for path, if any.
	FileHash(ctx context.Context, path string) (string, bool, error)

	// WriteUnit replaces everything stored for path with the given unit and usages.
	WriteUnit(ctx context.Context, path, hash string, unit *extraction.SourceUnit, usages extraction.Usages) error

	// WriteFailure replaces everything stored for path with a failed parse.
	WriteFailure(ctx context.Context, path, hash string, parseErr error) error
}

// Processor handles the read → parse → analyze → write pipeline.
type Processor interface {
	// ProcessFiles processes files, given relative to the root directory.
	// Results are returned in input order.
	ProcessFiles(ctx context.Context, files []string) (*Stats, []FileResult, error)
}

// Stats tracks what was processed.
type Stats struct {
	FilesProcessed int
	FilesFailed    int
	FilesSkipped   int
	Types          int
	Methods        int
	Fields         int
	ExternalModels int
	CacheHits      int
	ProcessingTime time.Duration
}

// FileResult is the outcome for a single file. Skipped files were unchanged
// since they were last stored and carry no unit.
type FileResult struct {
	Path    string
	Hash    string
	Unit    *extraction.SourceUnit
	Usages  extraction.Usages
	Err     error
	Cached  bool
	Skipped bool
}

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	RootDir string
	Workers int
	// SkipUnchanged skips files whose stored hash matches their content.
	SkipUnchanged bool
}

// processor implements Processor interface.
type processor struct {
	cfg      ProcessorConfig
	parser   Parser
	analyzer Analyzer
	cache    *ParseCache
	store    Store
	progress ProgressReporter
	logger   *slog.Logger

	progressMu sync.Mutex
}

// NewProcessor creates a new Processor instance. The cache, store, progress
// reporter and logger are optional.
func NewProcessor(
	cfg ProcessorConfig,
	parser Parser,
	analyzer Analyzer,
	cache *ParseCache,
	store Store,
	progress ProgressReporter,
	logger *slog.Logger,
) Processor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &processor{
		cfg:      cfg,
		parser:   parser,
		analyzer: analyzer,
		cache:    cache,
		store:    store,
		progress: progress,
		logger:   logger,
	}
}

// ProcessFiles parses and analyzes files concurrently, then writes the
// results in input order. A file that fails to parse is recorded and does
// not stop the batch; read and storage failures do.
func (p *processor) ProcessFiles(ctx context.Context, files []string) (*Stats, []FileResult, error) {
	startTime := time.Now()
	stats := &Stats{}
	results := make([]FileResult, len(files))

	if len(files) == 0 {
		return stats, results, nil
	}

	p.progress.OnFileProcessingStart(len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := p.processFile(gctx, file)
			if err != nil {
				return err
			}
			results[i] = result

			p.progressMu.Lock()
			p.progress.OnFileProcessed(file)
			p.progressMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, result := range results {
		if err := p.write(ctx, result); err != nil {
			return nil, nil, err
		}
		stats.add(result)
	}
	stats.ProcessingTime = time.Since(startTime)

	p.logger.Debug("processed files",
		"files", stats.FilesProcessed,
		"failed", stats.FilesFailed,
		"skipped", stats.FilesSkipped,
		"cache_hits", stats.CacheHits,
		"duration", stats.ProcessingTime)

	return stats, results, nil
}

func (p *processor) processFile(ctx context.Context, file string) (FileResult, error) {
	source, err := os.ReadFile(filepath.Join(p.cfg.RootDir, file))
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to read %s: %w", file, err)
	}

	result := FileResult{Path: file, Hash: ContentHash(source)}

	if p.cfg.SkipUnchanged && p.store != nil {
		stored, ok, err := p.store.FileHash(ctx, file)
		if err != nil {
			return FileResult{}, fmt.Errorf("failed to look up %s: %w", file, err)
		}
		if ok && stored == result.Hash {
			result.Skipped = true
			return result, nil
		}
	}

	outcome, cached := p.cache.Get(result.Hash)
	if !cached {
		outcome = p.parse(source)
		p.cache.Put(result.Hash, outcome)
	}

	result.Unit = outcome.Unit
	result.Usages = outcome.Usages
	result.Err = outcome.Err
	result.Cached = cached

	if result.Err != nil {
		p.logger.Warn("failed to parse file", "file", file, "error", result.Err)
	}
	return result, nil
}

func (p *processor) parse(source []byte) *Outcome {
	unit, err := p.parser.Parse(source)
	if err != nil {
		return &Outcome{Err: err}
	}
	return &Outcome{Unit: unit, Usages: p.analyzer.Analyze(unit)}
}

func (p *processor) write(ctx context.Context, result FileResult) error {
	if p.store == nil || result.Skipped {
		return nil
	}

	if result.Err != nil {
		if err := p.store.WriteFailure(ctx, result.Path, result.Hash, result.Err); err != nil {
			return fmt.Errorf("failed to record failure for %s: %w", result.Path, err)
		}
		return nil
	}

	if err := p.store.WriteUnit(ctx, result.Path, result.Hash, result.Unit, result.Usages); err != nil {
		return fmt.Errorf("failed to write %s: %w", result.Path, err)
	}
	return nil
}

func (s *Stats) add(result FileResult) {
	switch {
	case result.Skipped:
		s.FilesSkipped++
		return
	case result.Err != nil:
		s.FilesFailed++
	default:
		s.FilesProcessed++
		result.Unit.Walk(func(_ []string, t *extraction.TypeDecl) bool {
			s.Types++
			s.Methods += len(t.Methods)
			s.Fields += len(t.Fields)
			return true
		})
		s.ExternalModels += len(result.Usages)
	}
	if result.Cached {
		s.CacheHits++
	}
}
