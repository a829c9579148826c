package indexer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gorename-mcp/internal/storage"
)

// setupTestStorage creates an in-memory SQLite database for testing
func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "Failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// createTestFile creates a temporary Go file for testing
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

const (
	fooSrc = `package pkg

import "fmt"

// Foo is a thing.
type Foo struct {
	Bar int
}

func NewFoo() *Foo {
	fmt.Println("new")
	return &Foo{Bar: 1}
}
`
	useSrc = `package pkg

type Wrapper struct {
	Foo
}

func Use() int {
	f := NewFoo()
	return f.Bar
}
`
	fooTestSrc = `package pkg

import "testing"

func TestNewFoo(t *testing.T) {
	if NewFoo().Bar != 1 {
		t.Fatal("bad")
	}
}
`
)

// setupModule writes a small module and returns its root
func setupModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	createTestFile(t, root, "go.mod", "module example.com/m\n\ngo 1.21\n")
	createTestFile(t, root, "pkg/foo.go", fooSrc)
	createTestFile(t, root, "pkg/use.go", useSrc)
	createTestFile(t, root, "pkg/foo_test.go", fooTestSrc)
	return root
}

// occurrencePaths returns the sorted file paths holding key's occurrences
func occurrencePaths(t *testing.T, store storage.Storage, root, key string) []string {
	t.Helper()
	ctx := context.Background()
	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	locs, err := store.ListOccurrencesBySymbol(ctx, project.ID, key)
	require.NoError(t, err)
	var paths []string
	for _, l := range locs {
		paths = append(paths, l.FilePath)
	}
	sort.Strings(paths)
	return paths
}

// TestNew verifies indexer initialization
func TestNew(t *testing.T) {
	store := setupTestStorage(t)

	idx := New(store, nil)

	assert.NotNil(t, idx)
	assert.NotNil(t, idx.storage)
	assert.NotNil(t, idx.log)
	assert.Equal(t, runtime.NumCPU(), idx.workers)
}

// TestDiscoverFiles_Success tests successful file discovery
func TestDiscoverFiles_Success(t *testing.T) {
	tmpDir := t.TempDir()

	// Create test structure
	createTestFile(t, tmpDir, "main.go", "package main\n")
	createTestFile(t, tmpDir, "pkg/util.go", "package pkg\n")
	createTestFile(t, tmpDir, "cmd/app/app.go", "package app\n")
	createTestFile(t, tmpDir, "README.md", "# README\n")

	idx := New(setupTestStorage(t), nil)
	config := &Config{IncludeTests: true, IncludeVendor: false}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.True(t, files[filepath.Join(tmpDir, "pkg/util.go")])
}

// TestDiscoverFiles_Filters tests test, vendor and hidden directory filters
func TestDiscoverFiles_Filters(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "main.go", "package main\n")
	createTestFile(t, tmpDir, "main_test.go", "package main\n")
	createTestFile(t, tmpDir, "vendor/lib/lib.go", "package lib\n")
	createTestFile(t, tmpDir, ".git/config.go", "package git\n")
	createTestFile(t, tmpDir, "testdata/fixture.go", "package fixture\n")

	tests := []struct {
		name   string
		config Config
		want   int
	}{
		{"defaults", Config{IncludeTests: true}, 2},
		{"skip tests", Config{IncludeTests: false}, 1},
		{"include vendor", Config{IncludeTests: true, IncludeVendor: true}, 3},
	}

	idx := New(setupTestStorage(t), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := idx.discoverFiles(tmpDir, &tt.config)
			require.NoError(t, err)
			assert.Len(t, files, tt.want)
			for path := range files {
				assert.False(t, strings.Contains(path, ".git"))
				assert.False(t, strings.Contains(path, "testdata"))
			}
		})
	}
}

// TestReadFileHashed tests hash computation
func TestReadFileHashed(t *testing.T) {
	tmpDir := t.TempDir()
	a := createTestFile(t, tmpDir, "a.go", "package a\n")
	b := createTestFile(t, tmpDir, "b.go", "package b\n")

	content, hashA, _, err := readFileHashed(a)
	require.NoError(t, err)
	assert.Equal(t, "package a\n", string(content))

	_, hashA2, _, err := readFileHashed(a)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashA2)

	_, hashB, _, err := readFileHashed(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)

	_, _, _, err = readFileHashed(filepath.Join(tmpDir, "missing.go"))
	assert.Error(t, err)
}

// TestCheckFileChanged tests incremental change detection
func TestCheckFileChanged(t *testing.T) {
	store := setupTestStorage(t)
	idx := New(store, nil)
	ctx := context.Background()

	project := &storage.Project{RootPath: "/test", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateProject(ctx, project))

	hash := [32]byte{1, 2, 3}
	require.NoError(t, store.UpsertFile(ctx, &storage.File{
		ProjectID:   project.ID,
		FilePath:    "existing.go",
		ContentHash: hash,
	}))

	unchanged, err := idx.checkFileChanged(ctx, store, project.ID, "new.go", hash)
	require.NoError(t, err)
	assert.False(t, unchanged, "new file must be indexed")

	unchanged, err = idx.checkFileChanged(ctx, store, project.ID, "existing.go", hash)
	require.NoError(t, err)
	assert.True(t, unchanged)

	unchanged, err = idx.checkFileChanged(ctx, store, project.ID, "existing.go", [32]byte{4, 5, 6})
	require.NoError(t, err)
	assert.False(t, unchanged)
}

// TestIndexProject_Success tests successful project indexing
func TestIndexProject_Success(t *testing.T) {
	root := setupModule(t)
	store := setupTestStorage(t)
	idx := New(store, nil)

	config := &Config{Workers: 2, BatchSize: 2, IncludeTests: true}
	stats, err := idx.IndexProject(context.Background(), root, config)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Greater(t, stats.SymbolsStored, 0)
	assert.Greater(t, stats.OccurrencesStored, 0)
	assert.Empty(t, stats.ErrorMessages)

	// Declaration, composite literal and return type in foo.go, embedded
	// field in use.go
	assert.Equal(t, []string{"pkg/foo.go", "pkg/foo.go", "pkg/foo.go", "pkg/use.go"},
		occurrencePaths(t, store, root, "example.com/m/pkg.Foo"))
	assert.Equal(t, []string{"pkg/foo.go", "pkg/foo.go", "pkg/foo_test.go", "pkg/use.go"},
		occurrencePaths(t, store, root, "example.com/m/pkg.Foo.Bar"))
	assert.Equal(t, []string{"pkg/use.go"},
		occurrencePaths(t, store, root, "example.com/m/pkg.Wrapper.Foo"))

	// Objects outside the workspace are not recorded
	assert.Empty(t, occurrencePaths(t, store, root, "fmt.Println"))

	project, err := store.GetProject(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/m", project.ModuleName)
	assert.Equal(t, "1.21", project.GoVersion)
	assert.Equal(t, 3, project.TotalFiles)
	assert.Equal(t, stats.OccurrencesStored, project.TotalOccurrences)
	assert.False(t, project.LastIndexedAt.IsZero())

	sym, err := store.GetSymbolByKey(context.Background(), project.ID, "example.com/m/pkg.NewFoo")
	require.NoError(t, err)
	assert.Equal(t, "function", sym.Kind)
	assert.True(t, sym.Exported)
}

// TestIndexProject_ExcludeTests tests that test files are left out when configured
func TestIndexProject_ExcludeTests(t *testing.T) {
	root := setupModule(t)
	store := setupTestStorage(t)
	idx := New(store, nil)

	stats, err := idx.IndexProject(context.Background(), root, &Config{IncludeTests: false})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.NotContains(t, occurrencePaths(t, store, root, "example.com/m/pkg.NewFoo"), "pkg/foo_test.go")
}

// TestIndexProject_IncrementalUpdate tests hash-based skipping, changes and removals
func TestIndexProject_IncrementalUpdate(t *testing.T) {
	root := setupModule(t)
	store := setupTestStorage(t)
	idx := New(store, nil)
	ctx := context.Background()
	config := &Config{IncludeTests: true}

	_, err := idx.IndexProject(ctx, root, config)
	require.NoError(t, err)

	// Nothing changed
	stats, err := idx.IndexProject(ctx, root, config)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 3, stats.FilesSkipped)

	// One file changed
	createTestFile(t, root, "pkg/use.go", useSrc+"\nfunc Again() *Foo { return NewFoo() }\n")
	stats, err = idx.IndexProject(ctx, root, config)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Equal(t, []string{"pkg/foo.go", "pkg/foo.go", "pkg/foo.go", "pkg/use.go", "pkg/use.go"},
		occurrencePaths(t, store, root, "example.com/m/pkg.Foo"))

	// One file removed
	require.NoError(t, os.Remove(filepath.Join(root, "pkg/use.go")))
	stats, err = idx.IndexProject(ctx, root, config)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRemoved)
	assert.Equal(t, []string{"pkg/foo.go", "pkg/foo.go", "pkg/foo.go"},
		occurrencePaths(t, store, root, "example.com/m/pkg.Foo"))

	project, err := store.GetProject(ctx, root)
	require.NoError(t, err)
	_, err = store.GetSymbolByKey(ctx, project.ID, "example.com/m/pkg.Use")
	assert.ErrorIs(t, err, storage.ErrNotFound, "symbols of removed files are dropped")

	// Force re-extracts everything
	stats, err = idx.IndexProject(ctx, root, &Config{IncludeTests: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
}

// TestIndexProject_WithTypeErrors tests that files with type errors are
// indexed from partial type information
func TestIndexProject_WithTypeErrors(t *testing.T) {
	root := t.TempDir()
	createTestFile(t, root, "go.mod", "module example.com/bad\n\ngo 1.21\n")
	createTestFile(t, root, "bad.go", `package bad

func Good() int { return 1 }

func Broken() int { return undefined + Good() }
`)

	store := setupTestStorage(t)
	idx := New(store, nil)
	stats, err := idx.IndexProject(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	project, err := store.GetProject(context.Background(), root)
	require.NoError(t, err)
	file, err := store.GetFile(context.Background(), project.ID, "bad.go")
	require.NoError(t, err)
	require.NotNil(t, file.ParseError)
	assert.Contains(t, *file.ParseError, "undefined")

	assert.Len(t, occurrencePaths(t, store, root, "example.com/bad.Good"), 2)
}

// TestIndexProject_ConcurrentCalls tests that overlapping runs fail fast
func TestIndexProject_ConcurrentCalls(t *testing.T) {
	root := setupModule(t)
	idx := New(setupTestStorage(t), nil)

	require.True(t, idx.lock.TryAcquire())
	_, err := idx.IndexProject(context.Background(), root, nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)
	idx.lock.Release()

	_, err = idx.IndexProject(context.Background(), root, nil)
	assert.NoError(t, err)
	assert.False(t, idx.lock.Held())
}

// TestIndexProject_ContextCancellation tests that a canceled context stops indexing
func TestIndexProject_ContextCancellation(t *testing.T) {
	root := setupModule(t)
	idx := New(setupTestStorage(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexProject(ctx, root, nil)
	assert.Error(t, err)
}

// TestParseGoMod tests go.mod parsing
func TestParseGoMod(t *testing.T) {
	tmpDir := t.TempDir()

	goModContent := `module github.com/example/project

go 1.21

require (
	github.com/stretchr/testify v1.8.0
)
`

	goModPath := filepath.Join(tmpDir, "go.mod")
	err := os.WriteFile(goModPath, []byte(goModContent), 0644)
	require.NoError(t, err)

	info, err := parseGoMod(goModPath)

	require.NoError(t, err)
	assert.Equal(t, "github.com/example/project", info.Module)
	assert.Equal(t, "1.21", info.GoVersion)
}

// TestParseGoMod_NonexistentFile tests error handling for nonexistent go.mod
func TestParseGoMod_NonexistentFile(t *testing.T) {
	_, err := parseGoMod("/nonexistent/go.mod")
	assert.Error(t, err)
}

// TestGetOrCreateProject tests project creation and reuse
func TestGetOrCreateProject(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "go.mod", "module example.com/p\n\ngo 1.22\n")

	store := setupTestStorage(t)
	idx := New(store, nil)
	ctx := context.Background()

	first, err := idx.getOrCreateProject(ctx, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/p", first.ModuleName)

	second, err := idx.getOrCreateProject(ctx, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

// TestIndexLock_ConcurrentAcquisition tests IndexLock behavior under concurrent access.
func TestIndexLock_ConcurrentAcquisition(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "TryAcquire fails when lock is held",
			testFunc: func(t *testing.T) {
				var lock IndexLock

				require.True(t, lock.TryAcquire(), "First TryAcquire should succeed")
				assert.True(t, lock.Held())
				assert.False(t, lock.TryAcquire(), "Second TryAcquire should fail while lock is held")

				lock.Release()
				assert.False(t, lock.Held())
				assert.True(t, lock.TryAcquire(), "Lock should be available after Release")
				lock.Release()
			},
		},
		{
			name: "Concurrent goroutines attempting acquisition",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				const numGoroutines = 100

				acquired := make([]bool, numGoroutines)
				var wg sync.WaitGroup
				wg.Add(numGoroutines)

				// Launch concurrent goroutines all trying to acquire the lock
				for i := 0; i < numGoroutines; i++ {
					go func(idx int) {
						defer wg.Done()
						acquired[idx] = lock.TryAcquire()
					}(i)
				}

				wg.Wait()

				successCount := 0
				for _, success := range acquired {
					if success {
						successCount++
					}
				}

				assert.Equal(t, 1, successCount, "Exactly one goroutine should acquire the lock")
				lock.Release()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
