package config

import (
	"github.com/mvp-joe/javamodel/internal/indexer"
	"github.com/mvp-joe/javamodel/internal/indexer/externals"
)

// AnalysisOptions converts the analysis section to analyzer options.
func (c *Config) AnalysisOptions() externals.Options {
	return externals.Options{
		MaxRawMatches:      c.Analysis.MaxRawMatches,
		CollectionBuiltins: c.Analysis.CollectionBuiltins,
		ExtraBuiltins:      c.Analysis.ExtraBuiltins,
	}
}

// ToIndexerConfig converts the loaded configuration to indexer configuration.
func (c *Config) ToIndexerConfig(rootDir string) indexer.Config {
	return indexer.Config{
		RootDir:        rootDir,
		CodePatterns:   c.Paths.Code,
		IgnorePatterns: c.Paths.Ignore,
		Extensions:     c.GetSourceExtensions(),
		Analysis:       c.AnalysisOptions(),
		Workers:        c.Indexer.Workers,
		CacheSize:      c.Indexer.CacheSize,
	}
}
