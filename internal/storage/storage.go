package storage

import (
	"context"
	"time"

	"github.com/dshills/gorename-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying the symbol index
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Symbol operations
	UpsertSymbol(ctx context.Context, symbol *Symbol) error
	GetSymbolByKey(ctx context.Context, projectID int64, key string) (*Symbol, error)
	SearchSymbols(ctx context.Context, projectID int64, name string, limit int) ([]*Symbol, error)
	DeleteOrphanSymbols(ctx context.Context, projectID int64) (int, error)

	// Occurrence operations
	ReplaceOccurrences(ctx context.Context, fileID int64, occurrences []Occurrence) error
	ListOccurrencesBySymbol(ctx context.Context, projectID int64, symbolKey string) ([]*OccurrenceLocation, error)
	DeleteOccurrencesByFile(ctx context.Context, fileID int64) error

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents an indexed Go workspace
type Project struct {
	ID               int64
	RootPath         string
	ModuleName       string
	GoVersion        string
	TotalFiles       int
	TotalOccurrences int
	IndexVersion     string
	LastIndexedAt    time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// File represents a tracked Go source file
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string // Relative to project root
	PackagePath   string
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	ParseError    *string // Nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Symbol is a renamable object known to the index
type Symbol struct {
	ID          int64
	ProjectID   int64
	Key         string
	Name        string
	Kind        string
	PackagePath string
	Exported    bool
	CreatedAt   time.Time
}

// Occurrence is one spelling of a symbol's name in a file
type Occurrence struct {
	ID           int64
	FileID       int64
	SymbolKey    string
	StartOffset  int
	EndOffset    int
	StartLine    int
	StartCol     int
	EndLine      int
	EndCol       int
	IsDefinition bool
	CreatedAt    time.Time
}

// OccurrenceLocation is an occurrence joined with its file path
type OccurrenceLocation struct {
	Occurrence
	FilePath string // Relative to project root
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project          *Project
	FilesCount       int
	SymbolsCount     int
	OccurrencesCount int
	IndexSizeMB      float64
	LastIndexedAt    time.Time
	Health           HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FilesWithErrors    int
}

// Range converts the stored offsets and positions to a types.Range
func (o *Occurrence) Range() types.Range {
	return types.Range{
		Begin: types.Position{Offset: o.StartOffset, Line: o.StartLine, Column: o.StartCol},
		End:   types.Position{Offset: o.EndOffset, Line: o.EndLine, Column: o.EndCol},
	}
}

// FromRange builds an occurrence row for a range in a file
func FromRange(fileID int64, symbolKey string, r types.Range, isDefinition bool) Occurrence {
	return Occurrence{
		FileID:       fileID,
		SymbolKey:    symbolKey,
		StartOffset:  r.Begin.Offset,
		EndOffset:    r.End.Offset,
		StartLine:    r.Begin.Line,
		StartCol:     r.Begin.Column,
		EndLine:      r.End.Line,
		EndCol:       r.End.Column,
		IsDefinition: isDefinition,
	}
}
