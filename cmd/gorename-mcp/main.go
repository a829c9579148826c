package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/gorename-mcp/internal/config"
	"github.com/dshills/gorename-mcp/internal/logging"
	"github.com/dshills/gorename-mcp/internal/lspconv"
	"github.com/dshills/gorename-mcp/internal/mcp"
	"github.com/dshills/gorename-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// CLI flags
var (
	configPath    string
	dbPath        string
	writeEdits    bool
	jsonOutput    bool
	forceReindex  bool
	includeVendor bool
	noCrossFile   bool
)

var rootCmd = &cobra.Command{
	Use:   "gorename-mcp",
	Short: "Index-assisted Go symbol renaming over MCP",
	Long: `gorename-mcp renames Go symbols across a module.

The current file is renamed from live type information. Other files are
renamed from a stored occurrence index that is reconciled against their
current text, so edits made since the last index run are tolerated and
files that drifted too far are skipped rather than corrupted.

QUICK START:
  gorename-mcp index /path/to/module                 # Build the occurrence index
  gorename-mcp rename main.go 12 6 NewName           # Print the edits
  gorename-mcp rename main.go 12 6 NewName --write   # Apply them
  gorename-mcp serve                                 # Start the MCP server on stdio`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index the symbol occurrences of a Go module",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var renameCmd = &cobra.Command{
	Use:   "rename <file> <line> <column> <new-name>",
	Short: "Rename the symbol at a 1-based line and column",
	Args:  cobra.ExactArgs(4),
	RunE:  runRename,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gorename-mcp\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path (optional, $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Index database directory (overrides config and $"+config.EnvDBPath+")")

	indexCmd.Flags().BoolVarP(&forceReindex, "force", "f", false, "Re-index files whose content hash is unchanged")
	indexCmd.Flags().BoolVar(&includeVendor, "vendor", false, "Index the vendor directory")

	renameCmd.Flags().BoolVarP(&writeEdits, "write", "w", false, "Write the edits to disk")
	renameCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the LSP workspace edit as JSON")
	renameCmd.Flags().BoolVar(&noCrossFile, "no-cross-file", false, "Refuse renames that reach other files")

	rootCmd.AddCommand(serveCmd, indexCmd, renameCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the server
func setup() (*mcp.Server, *config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	// Log to stderr (stdout reserved for MCP protocol)
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, nil, err
	}

	server, err := mcp.NewServer(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server, cfg, log, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	server, _, log, err := setup()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"version": version,
		"mode":    storage.BuildMode,
		"driver":  storage.DriverName,
	}).Info("gorename-mcp starting")

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		log.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Shutting down")
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("Server stopped")
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	server, cfg, _, err := setup()
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.IndexOptions()
	opts.Force = forceReindex
	opts.IncludeVendor = opts.IncludeVendor || includeVendor

	stats, err := server.IndexWorkspace(ctx, args[0], opts)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d files (%d skipped, %d failed, %d removed) in %v\n",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.FilesRemoved, stats.Duration)
	fmt.Printf("Stored %d symbols and %d occurrences from %d packages\n",
		stats.SymbolsStored, stats.OccurrencesStored, stats.PackagesLoaded)
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line %q", args[1])
	}
	column, err := strconv.Atoi(args[2])
	if err != nil || column < 1 {
		return fmt.Errorf("invalid column %q", args[2])
	}
	file, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	newName := args[3]

	server, _, _, err := setup()
	if err != nil {
		return err
	}
	defer server.Close()

	req := mcp.RenameRequest{
		File:      file,
		Line:      line - 1,
		Character: column - 1,
		NewName:   &newName,
		Apply:     writeEdits,
	}
	if noCrossFile {
		allow := false
		req.AllowCrossFile = &allow
	}

	resp, err := server.Rename(context.Background(), req)
	if err != nil {
		return err
	}
	result := resp.Result

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"changes": lspconv.ToWorkspaceChanges(result.GlobalChanges),
		})
	}

	for _, path := range result.GlobalChanges.Paths() {
		edit := result.GlobalChanges[path]
		rel, err := filepath.Rel(resp.Root, path)
		if err != nil {
			rel = path
		}
		fmt.Printf("%s: %d replacements\n", rel, len(edit.Replacements))
		for _, te := range lspconv.ToTextEdits(edit) {
			fmt.Printf("  %d:%d %s -> %s\n", te.Range.Start.Line+1, te.Range.Start.Character+1,
				result.OldName, te.NewText)
		}
	}
	for _, sk := range result.Skipped {
		fmt.Printf("skipped %s: %v\n", sk.Path, sk.Reason)
	}
	if !resp.Indexed {
		fmt.Fprintln(os.Stderr, "Workspace not indexed; only the current file was renamed")
	}
	if writeEdits {
		fmt.Printf("Wrote %d files\n", len(resp.Applied))
	}
	return nil
}
