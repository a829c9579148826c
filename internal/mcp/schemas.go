package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// positionProperties are the cursor arguments shared by the rename tools
func positionProperties() map[string]interface{} {
	return map[string]interface{}{
		"file": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the Go file holding the symbol",
		},
		"line": map[string]interface{}{
			"type":        "integer",
			"description": "0-based line of the cursor",
			"minimum":     0,
		},
		"character": map[string]interface{}{
			"type":        "integer",
			"description": "0-based column of the cursor in UTF-16 code units",
			"minimum":     0,
		},
		"root": map[string]interface{}{
			"type":        "string",
			"description": "Workspace root; defaults to the nearest directory holding go.mod",
		},
	}
}

// indexWorkspaceTool returns the tool definition for index_workspace
func indexWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_workspace",
		Description: "Index the symbol occurrences of a Go module so renames can reach every file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go module root (must contain go.mod)",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index all files ignoring file hashes (full rebuild)",
					"default":     false,
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
					"default":     true,
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index vendor/ directory",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// prepareRenameTool returns the tool definition for prepare_rename
func prepareRenameTool() mcp.Tool {
	return mcp.Tool{
		Name:        "prepare_rename",
		Description: "Check that the symbol at a position can be renamed and return its range and current name",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: positionProperties(),
			Required:   []string{"file", "line", "character"},
		},
	}
}

// renameSymbolTool returns the tool definition for rename_symbol
func renameSymbolTool() mcp.Tool {
	props := positionProperties()
	props["new_name"] = map[string]interface{}{
		"type":        "string",
		"description": "New identifier for the symbol",
	}
	props["apply"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If true, write the edits to disk; otherwise only return them",
		"default":     false,
	}
	props["allow_cross_file"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If false, refuse renames that reach files other than the current one",
	}

	return mcp.Tool{
		Name:        "rename_symbol",
		Description: "Rename a Go symbol in its file and, when the workspace is indexed, in every other file using it. Returns an LSP workspace edit and the files that had to be skipped",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"file", "line", "character", "new_name"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Find indexed symbols whose name contains a query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go module",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Name or name fragment to look for",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a Go module",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go module",
				},
			},
			Required: []string{"path"},
		},
	}
}
