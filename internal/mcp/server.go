package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/dshills/gorename-mcp/internal/config"
	"github.com/dshills/gorename-mcp/internal/format"
	"github.com/dshills/gorename-mcp/internal/fsys"
	"github.com/dshills/gorename-mcp/internal/index"
	"github.com/dshills/gorename-mcp/internal/indexer"
	"github.com/dshills/gorename-mcp/internal/logging"
	"github.com/dshills/gorename-mcp/internal/resolver"
	"github.com/dshills/gorename-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "gorename-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DBFileName is the index database inside the configured directory
	DBFileName = "gorename.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	indexer *indexer.Indexer
	cfg     *config.Config
	log     logrus.FieldLogger

	fs        fsys.OS
	formatter format.Gofmt

	// Per-workspace state, keyed by absolute module root
	mu        sync.Mutex
	resolvers map[string]*resolver.Resolver
	indexes   map[string]*index.Index
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, log logrus.FieldLogger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Discard()
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbFile := filepath.Join(dbPath, DBFileName)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return newServer(cfg, store, log), nil
}

// newServer wires a server around an open store
func newServer(cfg *config.Config, store storage.Storage, log logrus.FieldLogger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:       mcpServer,
		storage:   store,
		indexer:   indexer.New(store, log.WithField("component", "indexer")),
		cfg:       cfg,
		log:       log,
		resolvers: make(map[string]*resolver.Resolver),
		indexes:   make(map[string]*index.Index),
	}

	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the index database
func (s *Server) Close() error {
	return s.storage.Close()
}

// Storage exposes the index store for the CLI
func (s *Server) Storage() storage.Storage {
	return s.storage
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexWorkspaceTool(), s.handleIndexWorkspace)
	s.mcp.AddTool(prepareRenameTool(), s.handlePrepareRename)
	s.mcp.AddTool(renameSymbolTool(), s.handleRenameSymbol)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}

// resolverFor returns the cached resolver for a module root
func (s *Server) resolverFor(root string) (*resolver.Resolver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.resolvers[root]; ok {
		return r, nil
	}
	r, err := resolver.New(resolver.Config{
		Root:         root,
		IncludeTests: s.cfg.Indexer.IncludeTests,
		Logger:       s.log.WithField("component", "resolver"),
	})
	if err != nil {
		return nil, err
	}
	s.resolvers[root] = r
	return r, nil
}

// indexFor returns the cached index view for a module root
func (s *Server) indexFor(root string) (*index.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, ok := s.indexes[root]; ok {
		return x, nil
	}
	x, err := index.New(s.storage, root, index.Options{})
	if err != nil {
		return nil, err
	}
	s.indexes[root] = x
	return x, nil
}

// invalidate drops cached index answers for a root after it changed
func (s *Server) invalidate(root string) {
	s.mu.Lock()
	x, ok := s.indexes[root]
	s.mu.Unlock()
	if ok {
		x.Invalidate()
	}
}
