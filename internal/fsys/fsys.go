// Package fsys provides the file access used by cross-file renames.
package fsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// OS reads files from disk.
type OS struct{}

// ReadFile returns the contents of path.
func (OS) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile replaces the contents of path, keeping its permissions.
func (OS) WriteFile(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// MemFS is an in-memory file system keyed by cleaned path.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemFS returns an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]string)}
}

// Set stores content for path.
func (m *MemFS) Set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
}

// ReadFile returns the stored content of path.
func (m *MemFS) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	content, ok := m.files[filepath.Clean(path)]
	m.mu.RUnlock()
	if ok {
		return content, nil
	}
	return "", fmt.Errorf("failed to read %s: %w", path, os.ErrNotExist)
}
