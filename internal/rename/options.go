package rename

import (
	"context"
	"runtime"

	"github.com/dshills/gorename-mcp/pkg/types"
)

// Options tunes a rename request.
type Options struct {
	// AllowCrossFile permits edits outside the main file.
	AllowCrossFile bool

	// LimitFiles is the maximum number of files the index may report
	// before the rename is refused. Zero means no limit.
	LimitFiles int

	// WantFormat runs the Formatter over every produced edit.
	WantFormat bool

	// MaxCostPerOccurrence is the reconciliation threshold per indexed
	// occurrence.
	MaxCostPerOccurrence int

	// Workers bounds how many files are reconciled concurrently.
	Workers int

	// RenameVirtual renames methods together with the interface and
	// concrete methods they are linked to by interface satisfaction.
	// When false such methods are refused.
	RenameVirtual bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		AllowCrossFile:       true,
		LimitFiles:           50,
		MaxCostPerOccurrence: 1,
		Workers:              runtime.NumCPU(),
		RenameVirtual:        true,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.MaxCostPerOccurrence <= 0 {
		o.MaxCostPerOccurrence = 1
	}
	if o.LimitFiles < 0 {
		o.LimitFiles = 0
	}
	return o
}

// Resolver identifies the symbol under the cursor and finds its
// occurrences in the main file from up-to-date semantic information.
type Resolver interface {
	Resolve(ctx context.Context, path, text string, pos types.Position) (*types.Symbol, error)
	OccurrencesInFile(ctx context.Context, sym *types.Symbol, path, text string) ([]types.Range, error)
}

// SymbolIndex reports where a symbol occurs across the workspace. Its
// answers may be stale relative to the files on disk.
type SymbolIndex interface {
	OccurrencesAcrossFiles(ctx context.Context, sym *types.Symbol) (map[string][]types.Range, error)
}

// FileSystem returns the current contents of files.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// Formatter rewrites an edit so the result is formatted.
type Formatter interface {
	Format(path string, edit types.Edit) (types.Edit, error)
}
