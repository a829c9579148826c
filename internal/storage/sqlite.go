package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

const projectColumns = `id, root_path, module_name, go_version, total_files, total_occurrences,
		       index_version, last_indexed_at, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*Project, error) {
	var project Project
	var moduleName, goVersion sql.NullString
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &moduleName, &goVersion,
		&project.TotalFiles, &project.TotalOccurrences, &project.IndexVersion,
		&lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	project.ModuleName = moduleName.String
	project.GoVersion = goVersion.String
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

// createProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, module_name, go_version, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.RootPath, project.ModuleName, project.GoVersion,
		project.IndexVersion, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

// getProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

// getProjectByIDWithQuerier retrieves a project by ID
func (s *SQLiteStorage) getProjectByIDWithQuerier(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

// updateProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET module_name = ?, go_version = ?, total_files = ?, total_occurrences = ?,
		    index_version = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		project.ModuleName, project.GoVersion, project.TotalFiles, project.TotalOccurrences,
		project.IndexVersion, project.LastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// File operations

const fileColumns = `id, project_id, file_path, package_path, content_hash, mod_time,
		       size_bytes, parse_error, last_indexed_at, created_at, updated_at`

func scanFile(row interface{ Scan(...interface{}) error }) (*File, error) {
	var file File
	var hash []byte
	var packagePath, parseError sql.NullString
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &packagePath,
		&hash, &file.ModTime, &file.SizeBytes, &parseError,
		&file.LastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	file.PackagePath = packagePath.String
	if parseError.Valid {
		file.ParseError = &parseError.String
	}
	return &file, nil
}

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, package_path, content_hash, mod_time, size_bytes, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			package_path = excluded.package_path,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.PackagePath, file.ContentHash[:],
		file.ModTime, file.SizeBytes, file.ParseError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

// getFileByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return scanFile(q.QueryRowContext(ctx, query, fileID))
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

// deleteFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM files WHERE id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// Symbol operations

const symbolColumns = `id, project_id, symbol_key, name, kind, package_path, exported, created_at`

func scanSymbol(row interface{ Scan(...interface{}) error }) (*Symbol, error) {
	var symbol Symbol
	err := row.Scan(
		&symbol.ID, &symbol.ProjectID, &symbol.Key, &symbol.Name,
		&symbol.Kind, &symbol.PackagePath, &symbol.Exported, &symbol.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &symbol, nil
}

// upsertSymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertSymbolWithQuerier(ctx context.Context, q querier, symbol *Symbol) error {
	// Use atomic INSERT ... ON CONFLICT to avoid race conditions
	query := `
		INSERT INTO symbols (project_id, symbol_key, name, kind, package_path, exported, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, symbol_key)
		DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			package_path = excluded.package_path,
			exported = excluded.exported
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		symbol.ProjectID, symbol.Key, symbol.Name, symbol.Kind,
		symbol.PackagePath, symbol.Exported, now,
	).Scan(&symbol.ID, &symbol.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return s.upsertSymbolWithQuerier(ctx, s.querier(), symbol)
}

// getSymbolByKeyWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getSymbolByKeyWithQuerier(ctx context.Context, q querier, projectID int64, key string) (*Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE project_id = ? AND symbol_key = ?`
	return scanSymbol(q.QueryRowContext(ctx, query, projectID, key))
}

func (s *SQLiteStorage) GetSymbolByKey(ctx context.Context, projectID int64, key string) (*Symbol, error) {
	return s.getSymbolByKeyWithQuerier(ctx, s.querier(), projectID, key)
}

// searchSymbolsWithQuerier matches symbol names by prefix, exact matches first
func (s *SQLiteStorage) searchSymbolsWithQuerier(ctx context.Context, q querier, projectID int64, name string, limit int) ([]*Symbol, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT ` + symbolColumns + `
		FROM symbols
		WHERE project_id = ? AND name LIKE ? ESCAPE '\'
		ORDER BY name = ? DESC, name, symbol_key
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, projectID, escapeLike(name)+"%", name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		symbol, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, projectID int64, name string, limit int) ([]*Symbol, error) {
	return s.searchSymbolsWithQuerier(ctx, s.querier(), projectID, name, limit)
}

// deleteOrphanSymbolsWithQuerier removes symbols no occurrence refers to
func (s *SQLiteStorage) deleteOrphanSymbolsWithQuerier(ctx context.Context, q querier, projectID int64) (int, error) {
	query := `
		DELETE FROM symbols
		WHERE project_id = ? AND symbol_key NOT IN (
			SELECT o.symbol_key FROM occurrences o
			JOIN files f ON o.file_id = f.id
			WHERE f.project_id = ?
		)
	`
	result, err := q.ExecContext(ctx, query, projectID, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan symbols: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStorage) DeleteOrphanSymbols(ctx context.Context, projectID int64) (int, error) {
	return s.deleteOrphanSymbolsWithQuerier(ctx, s.querier(), projectID)
}

// Occurrence operations

// replaceOccurrencesWithQuerier swaps a file's occurrences for a new set
func (s *SQLiteStorage) replaceOccurrencesWithQuerier(ctx context.Context, q querier, fileID int64, occurrences []Occurrence) error {
	if err := s.deleteOccurrencesByFileWithQuerier(ctx, q, fileID); err != nil {
		return err
	}
	if len(occurrences) == 0 {
		return nil
	}

	query := `
		INSERT INTO occurrences (
			file_id, symbol_key, start_offset, end_offset,
			start_line, start_col, end_line, end_col, is_definition, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, symbol_key, start_offset, end_offset) DO NOTHING
	`
	now := time.Now()
	for i := range occurrences {
		o := &occurrences[i]
		_, err := q.ExecContext(ctx, query,
			fileID, o.SymbolKey, o.StartOffset, o.EndOffset,
			o.StartLine, o.StartCol, o.EndLine, o.EndCol, o.IsDefinition, now)
		if err != nil {
			return fmt.Errorf("failed to insert occurrence: %w", err)
		}
		o.FileID = fileID
		o.CreatedAt = now
	}
	return nil
}

func (s *SQLiteStorage) ReplaceOccurrences(ctx context.Context, fileID int64, occurrences []Occurrence) error {
	return s.replaceOccurrencesWithQuerier(ctx, s.querier(), fileID, occurrences)
}

// listOccurrencesBySymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listOccurrencesBySymbolWithQuerier(ctx context.Context, q querier, projectID int64, symbolKey string) ([]*OccurrenceLocation, error) {
	query := `
		SELECT o.id, o.file_id, o.symbol_key, o.start_offset, o.end_offset,
		       o.start_line, o.start_col, o.end_line, o.end_col, o.is_definition,
		       o.created_at, f.file_path
		FROM occurrences o
		JOIN files f ON o.file_id = f.id
		WHERE f.project_id = ? AND o.symbol_key = ?
		ORDER BY f.file_path, o.start_offset
	`
	rows, err := q.QueryContext(ctx, query, projectID, symbolKey)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]*OccurrenceLocation, 0)
	for rows.Next() {
		var loc OccurrenceLocation
		err := rows.Scan(
			&loc.ID, &loc.FileID, &loc.SymbolKey, &loc.StartOffset, &loc.EndOffset,
			&loc.StartLine, &loc.StartCol, &loc.EndLine, &loc.EndCol, &loc.IsDefinition,
			&loc.CreatedAt, &loc.FilePath,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &loc)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListOccurrencesBySymbol(ctx context.Context, projectID int64, symbolKey string) ([]*OccurrenceLocation, error) {
	return s.listOccurrencesBySymbolWithQuerier(ctx, s.querier(), projectID, symbolKey)
}

// deleteOccurrencesByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteOccurrencesByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM occurrences WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteOccurrencesByFile(ctx context.Context, fileID int64) error {
	return s.deleteOccurrencesByFileWithQuerier(ctx, s.querier(), fileID)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByIDWithQuerier(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastIndexedAt: project.LastIndexedAt,
	}

	// Count files
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE project_id = ?", projectID).Scan(&status.FilesCount)
	if err != nil {
		return nil, err
	}

	// Count files that failed to type-check
	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM files WHERE project_id = ? AND parse_error IS NOT NULL", projectID,
	).Scan(&status.Health.FilesWithErrors)
	if err != nil {
		return nil, err
	}

	// Count symbols
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols WHERE project_id = ?", projectID).Scan(&status.SymbolsCount)
	if err != nil {
		return nil, err
	}

	// Count occurrences
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM occurrences o
		JOIN files f ON o.file_id = f.id
		WHERE f.project_id = ?
	`, projectID).Scan(&status.OccurrencesCount)
	if err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health.DatabaseAccessible = true
	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Transaction implementations delegate to the querier-based helpers so
// reads inside a transaction see its uncommitted writes.

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return t.storage.upsertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) GetSymbolByKey(ctx context.Context, projectID int64, key string) (*Symbol, error) {
	return t.storage.getSymbolByKeyWithQuerier(ctx, t.querier(), projectID, key)
}

func (t *sqliteTx) SearchSymbols(ctx context.Context, projectID int64, name string, limit int) ([]*Symbol, error) {
	return t.storage.searchSymbolsWithQuerier(ctx, t.querier(), projectID, name, limit)
}

func (t *sqliteTx) DeleteOrphanSymbols(ctx context.Context, projectID int64) (int, error) {
	return t.storage.deleteOrphanSymbolsWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) ReplaceOccurrences(ctx context.Context, fileID int64, occurrences []Occurrence) error {
	return t.storage.replaceOccurrencesWithQuerier(ctx, t.querier(), fileID, occurrences)
}

func (t *sqliteTx) ListOccurrencesBySymbol(ctx context.Context, projectID int64, symbolKey string) ([]*OccurrenceLocation, error) {
	return t.storage.listOccurrencesBySymbolWithQuerier(ctx, t.querier(), projectID, symbolKey)
}

func (t *sqliteTx) DeleteOccurrencesByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteOccurrencesByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
