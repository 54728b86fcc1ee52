package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// Outcome is the immutable result of parsing and analyzing one source text.
// Exactly one of Unit and Err is set.
type Outcome struct {
	Unit   *extraction.SourceUnit
	Usages extraction.Usages
	Err    error
}

// ParseCache memoizes outcomes by content hash. A nil *ParseCache is a
// valid, disabled cache. Cached outcomes are shared and must not be mutated.
type ParseCache struct {
	cache otter.Cache[string, *Outcome]
}

// NewParseCache creates a cache holding up to capacity outcomes.
// A non-positive capacity disables caching and returns nil.
func NewParseCache(capacity int) (*ParseCache, error) {
	if capacity <= 0 {
		return nil, nil
	}

	cache, err := otter.MustBuilder[string, *Outcome](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build parse cache: %w", err)
	}
	return &ParseCache{cache: cache}, nil
}

// ContentHash returns the hex SHA-256 of source.
func ContentHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached outcome for a content hash.
func (c *ParseCache) Get(hash string) (*Outcome, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(hash)
}

// Put stores an outcome under its content hash.
func (c *ParseCache) Put(hash string, outcome *Outcome) {
	if c == nil {
		return
	}
	c.cache.Set(hash, outcome)
}

// Hits returns the number of cache hits so far.
func (c *ParseCache) Hits() int64 {
	if c == nil {
		return 0
	}
	return c.cache.Stats().Hits()
}

// Len returns the number of cached outcomes.
func (c *ParseCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Size()
}

// Close releases the cache's background resources.
func (c *ParseCache) Close() {
	if c == nil {
		return
	}
	c.cache.Close()
}
