package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.lsp.dev/protocol"

	"github.com/dshills/gorename-mcp/internal/indexer"
	"github.com/dshills/gorename-mcp/internal/lspconv"
	"github.com/dshills/gorename-mcp/internal/rename"
	"github.com/dshills/gorename-mcp/internal/storage"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams          = -32602 // Invalid method parameters
	ErrorCodeInternalError          = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound        = -32001 // Specified path does not contain a Go project
	ErrorCodeIndexingInProgress     = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed             = -32003 // Project not indexed
	ErrorCodeEmptyQuery             = -32004 // Query parameter is empty
	ErrorCodeSymbolNotFound         = -32005 // No identifier at the position
	ErrorCodeNotRenamable           = -32006 // Symbol cannot be renamed
	ErrorCodeCrossFileNotAllowed    = -32007 // Rename reaches other files but they are disallowed
	ErrorCodeTooManyFiles           = -32008 // Rename exceeds the file limit
	ErrorCodeConcurrentModification = -32009 // File changed between computing and applying edits
)

// RenameRequest is one prepare or rename call
type RenameRequest struct {
	File      string // Absolute path of the file holding the cursor
	Line      int    // 0-based
	Character int    // 0-based, UTF-16 code units
	NewName   *string

	// Root overrides go.mod discovery
	Root string

	// AllowCrossFile overrides the configured default when set
	AllowCrossFile *bool

	// Apply writes the edits to disk
	Apply bool
}

// RenameResponse is the outcome of a RenameRequest
type RenameResponse struct {
	Root    string
	Indexed bool
	Result  *types.RenameResult
	Applied []string
}

// handleIndexWorkspace handles the index_workspace tool invocation
func (s *Server) handleIndexWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	// Parse optional parameters
	config := s.cfg.IndexOptions()
	config.Force = getBoolDefault(args, "force_reindex", false)
	config.IncludeTests = getBoolDefault(args, "include_tests", config.IncludeTests)
	config.IncludeVendor = getBoolDefault(args, "include_vendor", config.IncludeVendor)

	// Run indexing
	stats, err := s.IndexWorkspace(ctx, path, config)
	if err != nil {
		return nil, toMCPError("indexing failed", err)
	}

	// Format response
	response := map[string]interface{}{
		"indexed":            true,
		"packages_loaded":    stats.PackagesLoaded,
		"files_indexed":      stats.FilesIndexed,
		"files_skipped":      stats.FilesSkipped,
		"files_failed":       stats.FilesFailed,
		"files_removed":      stats.FilesRemoved,
		"symbols_stored":     stats.SymbolsStored,
		"occurrences_stored": stats.OccurrencesStored,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handlePrepareRename handles the prepare_rename tool invocation
func (s *Server) handlePrepareRename(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := parseRenameRequest(request, false)
	if err != nil {
		return nil, err
	}

	resp, err := s.Rename(ctx, req)
	if err != nil {
		return nil, toMCPError("prepare rename failed", err)
	}

	response := map[string]interface{}{
		"renamable":   true,
		"range":       lspconv.ToRange(resp.Result.Target),
		"placeholder": resp.Result.OldName.String(),
		"indexed":     resp.Indexed,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRenameSymbol handles the rename_symbol tool invocation
func (s *Server) handleRenameSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := parseRenameRequest(request, true)
	if err != nil {
		return nil, err
	}

	resp, err := s.Rename(ctx, req)
	if err != nil {
		return nil, toMCPError("rename failed", err)
	}

	result := resp.Result
	skipped := make([]map[string]interface{}, 0, len(result.Skipped))
	for _, sk := range result.Skipped {
		skipped = append(skipped, map[string]interface{}{
			"file":   sk.Path,
			"reason": sk.Reason.Error(),
		})
	}

	response := map[string]interface{}{
		"old_name":     result.OldName.String(),
		"new_name":     *req.NewName,
		"target":       lspconv.ToRange(result.Target),
		"changes":      lspconv.ToWorkspaceChanges(result.GlobalChanges),
		"files":        len(result.GlobalChanges),
		"replacements": result.GlobalChanges.ReplacementCount(),
		"complete":     result.Complete(),
		"skipped":      skipped,
		"indexed":      resp.Indexed,
	}
	if req.Apply {
		response["applied"] = resp.Applied
	}
	if !resp.Indexed {
		response["message"] = "Workspace not indexed; only the current file was renamed. Use index_workspace to enable cross-file renames."
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	project, err := s.storage.GetProject(ctx, filepath.Clean(path))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, toMCPError("failed to get project", err)
	}

	symbols, err := s.storage.SearchSymbols(ctx, project.ID, query, limit)
	if err != nil {
		return nil, toMCPError("symbol search failed", err)
	}

	results := make([]map[string]interface{}, 0, len(symbols))
	for _, sym := range symbols {
		results = append(results, map[string]interface{}{
			"key":      sym.Key,
			"name":     sym.Name,
			"kind":     sym.Kind,
			"package":  sym.PackagePath,
			"exported": sym.Exported,
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"total":   len(results),
		"symbols": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	// Try to get project
	project, err := s.storage.GetProject(ctx, filepath.Clean(path))
	if errors.Is(err, storage.ErrNotFound) {
		// Project not indexed
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_workspace tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Get detailed status
	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Format response
	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"module_name":     project.ModuleName,
			"go_version":      project.GoVersion,
			"index_version":   project.IndexVersion,
			"last_indexed_at": project.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"files_count":       status.FilesCount,
			"symbols_count":     status.SymbolsCount,
			"occurrences_count": status.OccurrencesCount,
			"index_size_mb":     fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"files_with_errors":   status.Health.FilesWithErrors,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// IndexWorkspace indexes the module at root and drops cached index answers
func (s *Server) IndexWorkspace(ctx context.Context, root string, config *indexer.Config) (*indexer.Statistics, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	stats, err := s.indexer.IndexProject(ctx, root, config)
	if err != nil {
		return nil, err
	}
	s.invalidate(root)
	return stats, nil
}

// Rename resolves the symbol at the request position and computes, and
// optionally applies, the edits that rename it. A request without NewName
// only checks that the symbol can be renamed.
func (s *Server) Rename(ctx context.Context, req RenameRequest) (*RenameResponse, error) {
	file, err := filepath.Abs(req.File)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file path: %w", err)
	}

	root := req.Root
	if root == "" {
		root, err = findModuleRoot(filepath.Dir(file))
		if err != nil {
			return nil, err
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	text, err := s.fs.ReadFile(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrFileUnreadable, err)
	}

	pos, err := lspconv.FromPosition(text, protocol.Position{
		Line:      uint32(req.Line),
		Character: uint32(req.Character),
	})
	if err != nil {
		return nil, err
	}

	res, err := s.resolverFor(root)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.RenameOptions()
	if req.AllowCrossFile != nil {
		opts.AllowCrossFile = *req.AllowCrossFile
	}

	in := rename.Inputs{
		Pos:          pos,
		NewName:      req.NewName,
		MainFilePath: file,
		MainFileText: text,
		Resolver:     res,
		Formatter:    s.formatter,
		Options:      opts,
		Logger:       s.log.WithField("component", "rename"),
	}

	resp := &RenameResponse{Root: root}

	// Without an index the rename stays in the main file
	if _, err := s.storage.GetProject(ctx, root); err == nil {
		x, err := s.indexFor(root)
		if err != nil {
			return nil, err
		}
		in.Index = x
		in.FS = s.fs
		resp.Indexed = true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	result, err := rename.Rename(ctx, in)
	if err != nil {
		return nil, err
	}
	result.SortSkipped()
	resp.Result = result

	if req.Apply && req.NewName != nil {
		applied, err := s.applyEdits(ctx, result.GlobalChanges)
		resp.Applied = applied
		if err != nil {
			return resp, err
		}
	}

	return resp, nil
}

// ErrConcurrentModification is returned when a file changed between
// computing and applying its edit
var ErrConcurrentModification = errors.New("file changed since the rename was computed")

// applyEdits writes every edit whose file still holds the text the edit
// was computed against. It stops at the first file that changed.
func (s *Server) applyEdits(ctx context.Context, edits types.FileEdits) ([]string, error) {
	applied := make([]string, 0, len(edits))
	for _, path := range edits.Paths() {
		edit := edits[path]
		if edit.Empty() {
			continue
		}

		current, err := s.fs.ReadFile(ctx, path)
		if err != nil {
			return applied, err
		}
		if current != edit.InitialCode {
			return applied, fmt.Errorf("%w: %s", ErrConcurrentModification, path)
		}

		updated, err := edit.Apply()
		if err != nil {
			return applied, fmt.Errorf("failed to apply edit to %s: %w", path, err)
		}
		if err := s.fs.WriteFile(path, updated); err != nil {
			return applied, err
		}
		applied = append(applied, path)
	}
	return applied, nil
}

// parseRenameRequest extracts the position arguments shared by the
// rename tools
func parseRenameRequest(request mcp.CallToolRequest, needName bool) (RenameRequest, error) {
	var req RenameRequest

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return req, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	file, ok := args["file"].(string)
	if !ok || file == "" {
		return req, newMCPError(ErrorCodeInvalidParams, "file parameter is required", map[string]interface{}{
			"param":  "file",
			"reason": "missing or empty",
		})
	}
	if err := validateFile(file); err != nil {
		return req, newMCPError(ErrorCodeInvalidParams, "invalid file", map[string]interface{}{
			"param":  "file",
			"reason": err.Error(),
		})
	}

	line := getIntDefault(args, "line", -1)
	character := getIntDefault(args, "character", -1)
	if line < 0 || character < 0 {
		return req, newMCPError(ErrorCodeInvalidParams, "line and character must be non-negative", map[string]interface{}{
			"line":      line,
			"character": character,
		})
	}

	req.File = file
	req.Line = line
	req.Character = character
	req.Root = getStringDefault(args, "root", "")

	if v, ok := args["allow_cross_file"].(bool); ok {
		req.AllowCrossFile = &v
	}

	if needName {
		newName, ok := args["new_name"].(string)
		if !ok || newName == "" {
			return req, newMCPError(ErrorCodeInvalidParams, "new_name parameter is required", map[string]interface{}{
				"param":  "new_name",
				"reason": "missing or empty",
			})
		}
		req.NewName = &newName
		req.Apply = getBoolDefault(args, "apply", false)
	}

	return req, nil
}

// Helper functions

// toMCPError maps domain errors to MCP error codes
func toMCPError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}

	var tooMany *types.TooManyFilesError
	switch {
	case errors.Is(err, indexer.ErrIndexingInProgress):
		return newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", data)
	case errors.As(err, &tooMany):
		data["files"] = tooMany.Count
		data["limit"] = tooMany.Limit
		return newMCPError(ErrorCodeTooManyFiles, message, data)
	case errors.Is(err, types.ErrSymbolNotFound):
		return newMCPError(ErrorCodeSymbolNotFound, message, data)
	case errors.Is(err, types.ErrNotRenamable):
		return newMCPError(ErrorCodeNotRenamable, message, data)
	case errors.Is(err, types.ErrCrossFileNotAllowed):
		return newMCPError(ErrorCodeCrossFileNotAllowed, message, data)
	case errors.Is(err, ErrNoModule):
		return newMCPError(ErrorCodeProjectNotFound, message, data)
	case errors.Is(err, ErrConcurrentModification):
		return newMCPError(ErrorCodeConcurrentModification, message, data)
	case errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrPieceCountMismatch),
		errors.Is(err, types.ErrSameName):
		return newMCPError(ErrorCodeInvalidParams, message, data)
	default:
		return newMCPError(ErrorCodeInternalError, message, data)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	// Check for Go files
	hasGoFiles := false
	_ = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(p, ".go") {
			hasGoFiles = true
			return filepath.SkipAll
		}
		return nil
	})

	if !hasGoFiles {
		return ErrNoGoFiles
	}

	return nil
}

// validateFile checks that path names a readable Go source file
func validateFile(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if info.IsDir() || !strings.HasSuffix(path, ".go") {
		return ErrNotGoFile
	}
	return nil
}

// findModuleRoot returns the nearest directory at or above dir holding a go.mod
func findModuleRoot(dir string) (string, error) {
	for d := dir; ; {
		if info, err := os.Stat(filepath.Join(d, "go.mod")); err == nil && !info.IsDir() {
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", fmt.Errorf("%w: %s", ErrNoModule, dir)
		}
		d = parent
	}
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoGoFiles       = errors.New("directory does not contain Go files")
	ErrNotGoFile       = errors.New("path is not a Go source file")
	ErrNoModule        = errors.New("no go.mod found above file")
)
