package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gorename.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultDBPath, cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Rename.AllowCrossFile)
	assert.Equal(t, 50, cfg.Rename.LimitFiles)
	assert.Equal(t, 1, cfg.Rename.MaxCostPerOccurrence)
	assert.True(t, cfg.Rename.RenameVirtual)
	assert.True(t, cfg.Indexer.IncludeTests)
	assert.False(t, cfg.Indexer.IncludeVendor)
	assert.Equal(t, runtime.NumCPU(), cfg.Indexer.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/index.db
log_level: debug
rename:
  allow_cross_file: false
  limit_files: 3
  rename_virtual: false
indexer:
  include_vendor: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/index.db", cfg.Database)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Rename.AllowCrossFile)
	assert.Equal(t, 3, cfg.Rename.LimitFiles)
	assert.False(t, cfg.Rename.RenameVirtual)
	assert.True(t, cfg.Indexer.IncludeVendor)

	// Unset keys keep their defaults
	assert.Equal(t, 1, cfg.Rename.MaxCostPerOccurrence)
	assert.True(t, cfg.Indexer.IncludeTests)
	assert.Equal(t, 20, cfg.Indexer.BatchSize)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "rename: [", "failed to parse config file"},
		{"negative limit", "rename:\n  limit_files: -1\n", "limit_files"},
		{"negative batch", "indexer:\n  batch_size: -5\n", "batch_size"},
		{"unknown format", "log_format: xml\n", "log format"},
		{"empty database", "database: \"\"\n", "database path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/env/index.db")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, "database: /file/index.db\nlog_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "/env/index.db", cfg.Database)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvDBPath, "")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.Database)

	path := writeConfig(t, "log_level: error\n")
	t.Setenv(EnvConfigPath, path)
	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)

	// An explicit path wins over the environment
	explicit := writeConfig(t, "log_level: debug\n")
	cfg, err = LoadOrDefault(explicit)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gorename.yaml")
	cfg := Default()
	cfg.Rename.LimitFiles = 7

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Rename.LimitFiles)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Rename.WantFormat = true
	cfg.Indexer.BatchSize = 5

	opts := cfg.RenameOptions()
	assert.True(t, opts.AllowCrossFile)
	assert.True(t, opts.WantFormat)
	assert.True(t, opts.RenameVirtual)
	assert.Equal(t, 50, opts.LimitFiles)

	ic := cfg.IndexOptions()
	assert.Equal(t, 5, ic.BatchSize)
	assert.True(t, ic.IncludeTests)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.gorename/indices")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gorename/indices"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandHome("~user/path")
	require.NoError(t, err)
	assert.Equal(t, "~user/path", got)
}
