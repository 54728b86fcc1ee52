package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMaxRawMatches indicates a non-positive raw match cap
	ErrInvalidMaxRawMatches = errors.New("invalid max raw matches")

	// ErrEmptyCodePatterns indicates no code patterns to index
	ErrEmptyCodePatterns = errors.New("empty code patterns")

	// ErrInvalidChunkSize indicates invalid chunk size configuration
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrEmptyDBPath indicates a missing database path
	ErrEmptyDBPath = errors.New("empty database path")

	// ErrInvalidWorkers indicates a worker count out of range
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
)

// MaxWorkers bounds indexer.workers.
const MaxWorkers = 64

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}

	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}

	if err := validateIndexer(&cfg.Indexer); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateAnalysis(cfg *AnalysisConfig) error {
	if cfg.MaxRawMatches <= 0 {
		return fmt.Errorf("%w: max_raw_matches must be positive, got %d", ErrInvalidMaxRawMatches, cfg.MaxRawMatches)
	}
	return nil
}

func validatePaths(cfg *PathsConfig) error {
	// Ignore patterns may be empty; code patterns may not
	if len(cfg.Code) == 0 {
		return fmt.Errorf("%w: at least one code pattern required", ErrEmptyCodePatterns)
	}
	return nil
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error

	if cfg.TokenLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: token_limit must be positive, got %d", ErrInvalidChunkSize, cfg.TokenLimit))
	}

	if cfg.TemplateOverhead < 0 {
		errs = append(errs, fmt.Errorf("%w: template_overhead cannot be negative, got %d", ErrInvalidChunkSize, cfg.TemplateOverhead))
	}

	if cfg.TokenLimit > 0 && cfg.TemplateOverhead >= cfg.TokenLimit {
		errs = append(errs, fmt.Errorf("%w: template_overhead (%d) must be less than token_limit (%d)", ErrInvalidChunkSize, cfg.TemplateOverhead, cfg.TokenLimit))
	}

	return joinErrors(errs)
}

func validateStorage(cfg *StorageConfig) error {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return fmt.Errorf("%w: db_path is required", ErrEmptyDBPath)
	}
	return nil
}

func validateIndexer(cfg *IndexerConfig) error {
	var errs []error

	if cfg.Workers < 1 || cfg.Workers > MaxWorkers {
		errs = append(errs, fmt.Errorf("%w: workers must be between 1 and %d, got %d", ErrInvalidWorkers, MaxWorkers, cfg.Workers))
	}

	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size cannot be negative, got %d", ErrInvalidCacheSettings, cfg.CacheSize))
	}

	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The result still matches each sentinel with errors.Is.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{msg: "validation failed:\n  - " + strings.Join(msgs, "\n  - "), errs: errs}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
