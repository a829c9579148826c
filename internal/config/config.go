package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gorename-mcp/internal/indexer"
	"github.com/dshills/gorename-mcp/internal/rename"
)

// Environment variables that override file settings
const (
	EnvConfigPath = "GORENAME_CONFIG"
	EnvDBPath     = "GORENAME_DB_PATH"
	EnvLogLevel   = "GORENAME_LOG_LEVEL"
)

// DefaultDBPath is where per-project index databases are kept
const DefaultDBPath = "~/.gorename/indices"

// Config is the server and CLI configuration
type Config struct {
	Database  string        `yaml:"database"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	Rename    RenameConfig  `yaml:"rename"`
	Indexer   IndexerConfig `yaml:"indexer"`
}

// RenameConfig tunes rename requests
type RenameConfig struct {
	AllowCrossFile       bool `yaml:"allow_cross_file"`
	LimitFiles           int  `yaml:"limit_files"`
	WantFormat           bool `yaml:"want_format"`
	MaxCostPerOccurrence int  `yaml:"max_cost_per_occurrence"`
	Workers              int  `yaml:"workers"`
	RenameVirtual        bool `yaml:"rename_virtual"`
}

// IndexerConfig tunes indexing runs
type IndexerConfig struct {
	IncludeTests  bool `yaml:"include_tests"`
	IncludeVendor bool `yaml:"include_vendor"`
	Workers       int  `yaml:"workers"`
	BatchSize     int  `yaml:"batch_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Database:  DefaultDBPath,
		LogLevel:  "info",
		LogFormat: "text",
		Rename: RenameConfig{
			AllowCrossFile:       true,
			LimitFiles:           50,
			WantFormat:           false,
			MaxCostPerOccurrence: 1,
			Workers:              runtime.NumCPU(),
			RenameVirtual:        true,
		},
		Indexer: IndexerConfig{
			IncludeTests:  true,
			IncludeVendor: false,
			Workers:       runtime.NumCPU(),
			BatchSize:     20,
		},
	}
}

// Load reads a YAML file on top of the defaults, applies environment
// overrides and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, then $GORENAME_CONFIG, and falls back to the
// defaults with environment overrides when neither is set. A file that
// is named but unreadable or invalid is an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		return Load(path)
	}

	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate rejects settings no component can honor
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if c.Rename.LimitFiles < 0 {
		errs = append(errs, errors.New("rename.limit_files must not be negative"))
	}
	if c.Rename.MaxCostPerOccurrence < 0 {
		errs = append(errs, errors.New("rename.max_cost_per_occurrence must not be negative"))
	}
	if c.Rename.Workers < 0 {
		errs = append(errs, errors.New("rename.workers must not be negative"))
	}
	if c.Indexer.Workers < 0 {
		errs = append(errs, errors.New("indexer.workers must not be negative"))
	}
	if c.Indexer.BatchSize < 0 {
		errs = append(errs, errors.New("indexer.batch_size must not be negative"))
	}

	return errors.Join(errs...)
}

// DatabasePath returns the database path with a leading ~ expanded
func (c *Config) DatabasePath() (string, error) {
	return ExpandHome(c.Database)
}

// RenameOptions converts the rename section to engine options
func (c *Config) RenameOptions() rename.Options {
	return rename.Options{
		AllowCrossFile:       c.Rename.AllowCrossFile,
		LimitFiles:           c.Rename.LimitFiles,
		WantFormat:           c.Rename.WantFormat,
		MaxCostPerOccurrence: c.Rename.MaxCostPerOccurrence,
		Workers:              c.Rename.Workers,
		RenameVirtual:        c.Rename.RenameVirtual,
	}
}

// IndexOptions converts the indexer section to an indexing configuration
func (c *Config) IndexOptions() *indexer.Config {
	return &indexer.Config{
		Workers:       c.Indexer.Workers,
		BatchSize:     c.Indexer.BatchSize,
		IncludeTests:  c.Indexer.IncludeTests,
		IncludeVendor: c.Indexer.IncludeVendor,
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
