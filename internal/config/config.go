// Package config loads javamodel settings from .javamodel/config.yml with
// JAVAMODEL_* environment variable overrides.
package config

// Config represents the complete javamodel configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Chunking ChunkingConfig `yaml:"chunking" mapstructure:"chunking"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Indexer  IndexerConfig  `yaml:"indexer" mapstructure:"indexer"`
}

// AnalysisConfig configures the external-usage index.
type AnalysisConfig struct {
	MaxRawMatches      int      `yaml:"max_raw_matches" mapstructure:"max_raw_matches"`         // raw matches kept per model
	CollectionBuiltins bool     `yaml:"collection_builtins" mapstructure:"collection_builtins"` // treat List, Map, ... as built-ins
	ExtraBuiltins      []string `yaml:"extra_builtins" mapstructure:"extra_builtins"`           // additional names never reported
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for Java sources
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// ChunkingConfig sizes the code chunks handed to documentation generators.
type ChunkingConfig struct {
	TokenLimit       int `yaml:"token_limit" mapstructure:"token_limit"`             // model context budget in tokens
	TemplateOverhead int `yaml:"template_overhead" mapstructure:"template_overhead"` // tokens reserved for the prompt template
}

// StorageConfig locates the model database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // relative to the project root unless absolute
}

// IndexerConfig tunes batch processing.
type IndexerConfig struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`       // concurrent parse workers
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size"` // parse cache entries
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxRawMatches:      200,
			CollectionBuiltins: true,
			ExtraBuiltins:      []string{},
		},
		Paths: PathsConfig{
			Code: []string{"**/*.java"},
			Ignore: []string{
				"target/**",
				"build/**",
				".git/**",
				"out/**",
				"node_modules/**",
			},
		},
		Chunking: ChunkingConfig{
			TokenLimit:       2000,
			TemplateOverhead: 500,
		},
		Storage: StorageConfig{
			DBPath: ".javamodel/model.db",
		},
		Indexer: IndexerConfig{
			Workers:   4,
			CacheSize: 1024,
		},
	}
}

// GetSourceExtensions extracts unique file extensions from the code patterns.
// Returns extensions with leading dot (e.g., []string{".java"}).
func (c *Config) GetSourceExtensions() []string {
	seen := make(map[string]bool)
	var extensions []string
	for _, pattern := range c.Paths.Code {
		if ext := extractExtension(pattern); ext != "" && !seen[ext] {
			seen[ext] = true
			extensions = append(extensions, ext)
		}
	}
	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Examples: "**/*.java" -> ".java", "*.java" -> ".java", "src/Main.java" -> "".
func extractExtension(pattern string) string {
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}
