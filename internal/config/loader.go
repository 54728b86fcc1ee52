package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader that reads an explicit config file instead
// of searching .javamodel/ under rootDir. A missing file is an error.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (JAVAMODEL_*)
// 2. Config file (.javamodel/config.yml or .javamodel/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".javamodel"))
	}

	// Replace . with _ in env var names (e.g., JAVAMODEL_ANALYSIS_MAX_RAW_MATCHES)
	v.SetEnvPrefix("JAVAMODEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Analysis configuration
	v.BindEnv("analysis.max_raw_matches")
	v.BindEnv("analysis.collection_builtins")
	v.BindEnv("analysis.extra_builtins")

	// Chunking configuration
	v.BindEnv("chunking.token_limit")
	v.BindEnv("chunking.template_overhead")

	// Storage and indexer configuration
	v.BindEnv("storage.db_path")
	v.BindEnv("indexer.workers")
	v.BindEnv("indexer.cache_size")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable when searching - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	// Analysis defaults
	v.SetDefault("analysis.max_raw_matches", defaults.Analysis.MaxRawMatches)
	v.SetDefault("analysis.collection_builtins", defaults.Analysis.CollectionBuiltins)
	v.SetDefault("analysis.extra_builtins", defaults.Analysis.ExtraBuiltins)

	// Paths defaults
	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	// Chunking defaults
	v.SetDefault("chunking.token_limit", defaults.Chunking.TokenLimit)
	v.SetDefault("chunking.template_overhead", defaults.Chunking.TemplateOverhead)

	// Storage defaults
	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	// Indexer defaults
	v.SetDefault("indexer.workers", defaults.Indexer.Workers)
	v.SetDefault("indexer.cache_size", defaults.Indexer.CacheSize)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// ResolveDBPath returns the database path, anchored at rootDir when relative.
func (c *Config) ResolveDBPath(rootDir string) string {
	if filepath.IsAbs(c.Storage.DBPath) {
		return c.Storage.DBPath
	}
	return filepath.Join(rootDir, c.Storage.DBPath)
}
