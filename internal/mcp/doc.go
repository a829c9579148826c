// Package mcp implements the Model Context Protocol (MCP) server for
// gorename.
//
// The MCP server exposes five tools to AI coding assistants:
//   - index_workspace: Index symbol occurrences of a Go module
//   - prepare_rename: Check the symbol under a cursor can be renamed
//   - rename_symbol: Compute (and optionally apply) a rename
//   - search_symbols: Find indexed symbols by name
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries the protocol, so all logging goes to stderr.
//
// # Basic Usage
//
//	gorename-mcp serve
//
// # Tool: index_workspace
//
//	Request:
//	{
//	  "name": "index_workspace",
//	  "arguments": {"path": "/path/to/module", "include_tests": true}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 247,
//	  "files_skipped": 0,
//	  "occurrences_stored": 18342,
//	  "duration_ms": 3520
//	}
//
// # Tool: rename_symbol
//
// Positions are 0-based with UTF-16 columns, as in LSP:
//
//	Request:
//	{
//	  "name": "rename_symbol",
//	  "arguments": {
//	    "file": "/path/to/module/pkg/user.go",
//	    "line": 12,
//	    "character": 5,
//	    "new_name": "Account",
//	    "apply": false
//	  }
//	}
//
//	Response:
//	{
//	  "old_name": "User",
//	  "new_name": "Account",
//	  "changes": {
//	    "file:///path/to/module/pkg/user.go": [
//	      {"range": {"start": {"line": 12, "character": 5}, "end": {...}}, "newText": "Account"}
//	    ]
//	  },
//	  "files": 4,
//	  "complete": false,
//	  "skipped": [{"file": "/path/to/module/cmd/main.go", "reason": "..."}]
//	}
//
// Files in "skipped" were reported by the index but their current text no
// longer matches it closely enough; they are left unedited. Without an
// index only the current file is renamed.
//
// # Error Codes
//
//	-32602  Invalid parameters (bad position, invalid or identical new name)
//	-32603  Internal error
//	-32001  No Go module at the path
//	-32002  Indexing already in progress
//	-32003  Project not indexed
//	-32004  Empty query
//	-32005  No symbol at the position
//	-32006  Symbol cannot be renamed
//	-32007  Cross-file rename disallowed
//	-32008  Too many files affected
//	-32009  File changed before the edit was applied
package mcp
