package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/internal/logging"
	"github.com/dshills/gorename-mcp/internal/resolver"
	"github.com/dshills/gorename-mcp/internal/storage"
)

// ErrIndexingInProgress is returned when another IndexProject call holds
// the indexer.
var ErrIndexingInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: load -> extract -> store
type Indexer struct {
	storage storage.Storage
	log     logrus.FieldLogger
	lock    IndexLock

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers       int  // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize     int  // Number of files to commit per transaction (default: 20)
	IncludeTests  bool // Whether to index test files (default: true)
	IncludeVendor bool // Whether to index vendor directory (default: false)
	Force         bool // Re-extract files whose content hash is unchanged
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		Workers:       runtime.NumCPU(),
		BatchSize:     20,
		IncludeTests:  true,
		IncludeVendor: false,
	}
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	PackagesLoaded    int
	FilesIndexed      int
	FilesSkipped      int
	FilesFailed       int
	FilesRemoved      int
	SymbolsStored     int
	OccurrencesStored int
	Duration          time.Duration
	ErrorMessages     []string
}

// New creates a new Indexer instance
func New(store storage.Storage, log logrus.FieldLogger) *Indexer {
	if log == nil {
		log = logging.Discard()
	}
	return &Indexer{
		storage: store,
		log:     log,
		workers: runtime.NumCPU(),
	}
}

// fileJob is one source file and the package variant it is extracted from.
type fileJob struct {
	path     string // absolute
	relPath  string
	root     string
	pkg      *packages.Package
	syntax   *ast.File
	loadErrs []string
}

// IndexProject indexes every package of the Go module at rootPath
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	idx.workers = config.Workers

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	// Get or create project
	project, err := idx.getOrCreateProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	// Discover Go files
	files, err := idx.discoverFiles(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	// Type-check the module
	pkgs, err := idx.loadPackages(ctx, rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	stats.PackagesLoaded = len(pkgs)

	jobs := idx.planJobs(rootPath, pkgs, files)

	idx.log.WithFields(logrus.Fields{
		"root":     rootPath,
		"packages": len(pkgs),
		"files":    len(jobs),
	}).Info("Indexing project")

	// Index files concurrently
	keys := resolver.NewKeys()
	err = idx.indexFiles(ctx, project, keys, jobs, config, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	// Drop files that disappeared since the last run
	removed, err := idx.removeStaleFiles(ctx, project, jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to remove stale files: %w", err)
	}
	stats.FilesRemoved = removed

	if _, err := idx.storage.DeleteOrphanSymbols(ctx, project.ID); err != nil {
		return nil, fmt.Errorf("failed to delete orphan symbols: %w", err)
	}

	// Update project statistics
	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)

	idx.log.WithFields(logrus.Fields{
		"indexed":  stats.FilesIndexed,
		"skipped":  stats.FilesSkipped,
		"failed":   stats.FilesFailed,
		"removed":  stats.FilesRemoved,
		"duration": stats.Duration,
	}).Info("Indexing complete")

	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	// Try to get existing project
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}

	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	// Create new project
	project = &storage.Project{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}

	// Try to extract module info from go.mod
	goModPath := filepath.Join(rootPath, "go.mod")
	if modInfo, err := parseGoMod(goModPath); err == nil {
		project.ModuleName = modInfo.Module
		project.GoVersion = modInfo.GoVersion
	}

	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// discoverFiles finds all Go files in the project
func (idx *Indexer) discoverFiles(rootPath string, config *Config) (map[string]bool, error) {
	files := make(map[string]bool)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if info.IsDir() {
			if path == rootPath {
				return nil
			}
			// Skip vendor unless explicitly included
			if !config.IncludeVendor && info.Name() == "vendor" {
				return filepath.SkipDir
			}
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") || info.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}

		// Check if it's a Go file
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		// Skip test files unless explicitly included
		if !config.IncludeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}

		files[path] = true
		return nil
	})

	return files, err
}

// loadPackages type-checks every package under rootPath
func (idx *Indexer) loadPackages(ctx context.Context, rootPath string, config *Config) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    resolver.LoadMode,
		Dir:     rootPath,
		Tests:   config.IncludeTests,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, err
	}
	// Stable order so the same variant claims each file on every run
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
	return pkgs, nil
}

// planJobs assigns each discovered file to the first package variant that
// compiles it. Files no package compiles (build-tag excluded, ignored
// directories) are left out.
func (idx *Indexer) planJobs(rootPath string, pkgs []*packages.Package, files map[string]bool) []fileJob {
	claimed := make(map[string]bool)
	var jobs []fileJob

	for _, pkg := range pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		for _, f := range pkg.Syntax {
			tf := pkg.Fset.File(f.FileStart)
			if tf == nil {
				continue
			}
			path := filepath.Clean(tf.Name())
			if !files[path] || claimed[path] {
				continue
			}
			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				continue
			}
			claimed[path] = true
			jobs = append(jobs, fileJob{
				path:     path,
				relPath:  relPath,
				root:     rootPath,
				pkg:      pkg,
				syntax:   f,
				loadErrs: errorsForFile(pkg, path),
			})
		}
	}
	return jobs
}

// errorsForFile returns the package's load errors positioned in path, or
// all unpositioned errors.
func errorsForFile(pkg *packages.Package, path string) []string {
	var out []string
	for _, e := range pkg.Errors {
		if e.Pos == "" || e.Pos == "-" || strings.HasPrefix(e.Pos, path+":") {
			out = append(out, e.Error())
		}
	}
	return out
}

// indexFiles indexes files concurrently in batches
func (idx *Indexer) indexFiles(ctx context.Context, project *storage.Project, keys *resolver.Keys,
	jobs []fileJob, config *Config, stats *Statistics) error {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, idx.workers)

	// Track progress with atomic counters
	var c counters

	// Process files in batches for transaction efficiency
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	// Use errgroup for concurrent processing with error propagation
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for i := 0; i < len(jobs); i += batchSize {
		end := i + batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batch := jobs[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, project, keys, batch, config, semaphore, &c, &mu, stats)
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return err
	}

	// Update statistics
	stats.FilesIndexed = int(c.indexed.Load())
	stats.FilesSkipped = int(c.skipped.Load())
	stats.FilesFailed = int(c.failed.Load())
	stats.SymbolsStored = int(c.symbols.Load())
	stats.OccurrencesStored = int(c.occurrences.Load())

	return nil
}

type counters struct {
	indexed     atomic.Int32
	skipped     atomic.Int32
	failed      atomic.Int32
	symbols     atomic.Int32
	occurrences atomic.Int32
}

// indexBatch indexes a batch of files within a transaction
func (idx *Indexer) indexBatch(ctx context.Context, project *storage.Project, keys *resolver.Keys,
	jobs []fileJob, config *Config, semaphore chan struct{}, c *counters,
	mu *sync.Mutex, stats *Statistics) error {

	// Start a transaction for this batch
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Process each file in the batch
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		err := idx.indexFile(ctx, tx, project, keys, job, config, c)
		<-semaphore // Release semaphore

		if err != nil {
			c.failed.Add(1)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", job.relPath, err))
			mu.Unlock()
			idx.log.WithFields(logrus.Fields{
				"path":  job.relPath,
				"error": err.Error(),
			}).Warn("Failed to index file")
			// Continue with other files
			continue
		}
	}

	// Commit the batch
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// indexFile indexes a single file
func (idx *Indexer) indexFile(ctx context.Context, store storage.Storage, project *storage.Project,
	keys *resolver.Keys, job fileJob, config *Config, c *counters) error {

	// Compute file hash
	content, hash, modTime, err := readFileHashed(job.path)
	if err != nil {
		return err
	}

	// Check if file has changed and handle incremental update
	if !config.Force {
		unchanged, err := idx.checkFileChanged(ctx, store, project.ID, job.relPath, hash)
		if err != nil {
			return err
		}
		if unchanged {
			c.skipped.Add(1)
			return nil
		}
	}

	// Create or update file record
	file := &storage.File{
		ProjectID:   project.ID,
		FilePath:    job.relPath,
		PackagePath: job.pkg.PkgPath,
		ContentHash: hash,
		ModTime:     modTime,
		SizeBytes:   int64(len(content)),
	}

	// Record load errors; occurrences are still extracted from the
	// partial type information
	if len(job.loadErrs) > 0 {
		errMsg := job.loadErrs[0]
		file.ParseError = &errMsg
	}

	if err := store.UpsertFile(ctx, file); err != nil {
		return err
	}

	occurrences, symbols := extractOccurrences(keys, job, string(content))

	// Store symbols
	for _, sym := range symbols {
		sym.ProjectID = project.ID
		if err := store.UpsertSymbol(ctx, sym); err != nil {
			return fmt.Errorf("failed to store symbol: %w", err)
		}
	}

	// Store occurrences
	if err := store.ReplaceOccurrences(ctx, file.ID, occurrences); err != nil {
		return fmt.Errorf("failed to store occurrences: %w", err)
	}

	// Update counters
	c.indexed.Add(1)
	c.symbols.Add(int32(len(symbols)))
	c.occurrences.Add(int32(len(occurrences)))

	return nil
}

// extractOccurrences lists every identifier in the job's file that spells a
// keyed object declared in the workspace, plus the symbols it defines.
func extractOccurrences(keys *resolver.Keys, job fileJob, content string) ([]storage.Occurrence, []*storage.Symbol) {
	info := job.pkg.TypesInfo
	fset := job.pkg.Fset
	lines := lexer.NewLineIndex(content)

	var (
		occurrences []storage.Occurrence
		symbols     []*storage.Symbol
	)
	add := func(id *ast.Ident, obj types.Object, isDef bool) {
		if obj == nil {
			return
		}
		if _, ok := obj.(*types.PkgName); ok {
			return
		}
		key, ok := keys.Key(obj)
		if !ok {
			return
		}
		// Objects from the standard library or the module cache
		// can't be renamed
		decl := fset.Position(obj.Pos()).Filename
		if decl == "" || !resolver.Within(job.root, decl) {
			return
		}

		begin := fset.Position(id.Pos()).Offset
		r := lines.Range(begin, begin+len(id.Name))
		occurrences = append(occurrences, storage.FromRange(0, key, r, isDef))

		if isDef {
			symbols = append(symbols, &storage.Symbol{
				Key:         key,
				Name:        obj.Name(),
				Kind:        string(resolver.KindOf(obj)),
				PackagePath: obj.Pkg().Path(),
				Exported:    obj.Exported(),
			})
		}
	}

	ast.Inspect(job.syntax, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		add(id, info.Defs[id], true)
		add(id, info.Uses[id], false)
		return true
	})

	return occurrences, symbols
}

// checkFileChanged reports whether a file's stored hash matches hash
func (idx *Indexer) checkFileChanged(ctx context.Context, store storage.Storage, projectID int64,
	relPath string, hash [32]byte) (bool, error) {

	existingFile, err := store.GetFile(ctx, projectID, relPath)
	if errors.Is(err, storage.ErrNotFound) {
		// New file, needs indexing
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// File exists - check if it has changed
	return existingFile.ContentHash == hash, nil
}

// removeStaleFiles deletes stored files that were not part of this run
func (idx *Indexer) removeStaleFiles(ctx context.Context, project *storage.Project, jobs []fileJob) (int, error) {
	current := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		current[job.relPath] = true
	}

	files, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if current[f.FilePath] {
			continue
		}
		if err := idx.storage.DeleteFile(ctx, f.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// updateProjectStats updates the project's file and occurrence counts
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.TotalFiles = status.FilesCount
	project.TotalOccurrences = status.OccurrencesCount
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// readFileHashed reads a file and computes its SHA-256 hash
func readFileHashed(filePath string) ([]byte, [32]byte, time.Time, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, [32]byte{}, time.Time{}, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, [32]byte{}, time.Time{}, err
	}

	return content, sha256.Sum256(content), info.ModTime(), nil
}

// goModInfo contains parsed go.mod information
type goModInfo struct {
	Module    string
	GoVersion string
}

// parseGoMod extracts basic info from go.mod file
func parseGoMod(goModPath string) (*goModInfo, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, err
	}

	f, err := modfile.ParseLax(goModPath, content, nil)
	if err != nil {
		return nil, err
	}

	info := &goModInfo{}
	if f.Module != nil {
		info.Module = f.Module.Mod.Path
	}
	if f.Go != nil {
		info.GoVersion = f.Go.Version
	}

	return info, nil
}
