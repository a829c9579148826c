package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/gorename-mcp/internal/storage"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// DefaultCacheSize is the number of symbols whose occurrences are cached
const DefaultCacheSize = 1000

// Options configures an Index
type Options struct {
	CacheSize int           // Entries kept in the LRU (default: DefaultCacheSize)
	CacheTTL  time.Duration // Zero means entries live until Invalidate
}

// cacheEntry is a cached query answer with an optional expiry
type cacheEntry struct {
	files     map[string][]types.Range
	expiresAt time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Index answers cross-file occurrence queries for one project from the
// stored index. Answers reflect the last indexing run and may be stale.
type Index struct {
	storage storage.Storage
	root    string
	ttl     time.Duration

	cache   *lru.Cache[string, *cacheEntry]
	cacheMu sync.RWMutex

	projectMu sync.Mutex
	projectID int64
}

// New creates an Index over the project rooted at root
func New(store storage.Storage, root string, opts Options) (*Index, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &Index{
		storage: store,
		root:    root,
		ttl:     opts.CacheTTL,
		cache:   cache,
	}, nil
}

// Root returns the absolute project root
func (x *Index) Root() string {
	return x.root
}

// OccurrencesAcrossFiles returns every indexed occurrence of sym grouped by
// absolute file path, each file's ranges sorted by offset. Occurrences of
// the methods in sym.Related are merged in. Local symbols are never
// indexed and yield an empty map.
func (x *Index) OccurrencesAcrossFiles(ctx context.Context, sym *types.Symbol) (map[string][]types.Range, error) {
	if sym == nil {
		return nil, fmt.Errorf("%w: symbol is required", types.ErrInvalidInput)
	}
	if sym.Local || sym.Key == "" {
		return map[string][]types.Range{}, nil
	}

	if len(sym.Related) == 0 {
		return x.occurrencesOf(ctx, sym.Key)
	}

	merged := make(map[string][]types.Range)
	for _, key := range sym.Keys() {
		files, err := x.occurrencesOf(ctx, key)
		if err != nil {
			return nil, err
		}
		for path, ranges := range files {
			merged[path] = append(merged[path], ranges...)
		}
	}
	for path, ranges := range merged {
		merged[path] = types.UniqueRanges(ranges)
	}
	return merged, nil
}

// occurrencesOf answers one symbol key from the cache or the store
func (x *Index) occurrencesOf(ctx context.Context, key string) (map[string][]types.Range, error) {
	if files, ok := x.checkCache(key); ok {
		return files, nil
	}

	projectID, err := x.project(ctx)
	if err != nil {
		return nil, err
	}

	locs, err := x.storage.ListOccurrencesBySymbol(ctx, projectID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}

	files := make(map[string][]types.Range)
	for _, loc := range locs {
		path := filepath.Join(x.root, filepath.FromSlash(loc.FilePath))
		files[path] = append(files[path], loc.Range())
	}
	for _, ranges := range files {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Less(ranges[j]) })
	}

	x.storeInCache(key, files)
	return copyFiles(files), nil
}

// Invalidate drops all cached answers; call it after reindexing
func (x *Index) Invalidate() {
	x.cacheMu.Lock()
	x.cache.Purge()
	x.cacheMu.Unlock()

	x.projectMu.Lock()
	x.projectID = 0
	x.projectMu.Unlock()
}

// Len returns the number of cached symbols
func (x *Index) Len() int {
	x.cacheMu.RLock()
	defer x.cacheMu.RUnlock()
	return x.cache.Len()
}

// project looks up and remembers the project id for the root
func (x *Index) project(ctx context.Context) (int64, error) {
	x.projectMu.Lock()
	defer x.projectMu.Unlock()

	if x.projectID != 0 {
		return x.projectID, nil
	}
	p, err := x.storage.GetProject(ctx, x.root)
	if err != nil {
		return 0, fmt.Errorf("failed to get project %s: %w", x.root, err)
	}
	x.projectID = p.ID
	return p.ID, nil
}

// checkCache returns a copy of the cached answer for key
func (x *Index) checkCache(key string) (map[string][]types.Range, bool) {
	x.cacheMu.RLock()
	entry, found := x.cache.Get(key)
	if !found {
		x.cacheMu.RUnlock()
		return nil, false
	}

	if entry.expired(time.Now()) {
		x.cacheMu.RUnlock()

		x.cacheMu.Lock()
		x.cache.Remove(key)
		x.cacheMu.Unlock()
		return nil, false
	}

	files := copyFiles(entry.files)
	x.cacheMu.RUnlock()
	return files, true
}

// storeInCache saves an answer under key
func (x *Index) storeInCache(key string, files map[string][]types.Range) {
	entry := &cacheEntry{files: copyFiles(files)}
	if x.ttl > 0 {
		entry.expiresAt = time.Now().Add(x.ttl)
	}

	x.cacheMu.Lock()
	x.cache.Add(key, entry)
	x.cacheMu.Unlock()
}

// copyFiles deep-copies an answer so callers can't mutate cached ranges
func copyFiles(src map[string][]types.Range) map[string][]types.Range {
	dst := make(map[string][]types.Range, len(src))
	for path, ranges := range src {
		dst[path] = append([]types.Range(nil), ranges...)
	}
	return dst
}
