// Package storage provides SQLite-based persistence for the symbol index.
//
// The storage layer manages:
//   - Project metadata
//   - File information and content hashes
//   - Renamable symbols keyed by a stable symbol key
//   - Occurrences of each symbol, with byte offsets and line/column positions
//
// # Database Schema
//
// Tables:
//   - projects: Project metadata (root path, module name)
//   - files: File paths, package paths and SHA-256 hashes
//   - symbols: One row per symbol key within a project
//   - occurrences: Spelled-out name ranges per file, keyed by symbol key
//   - schema_version: Applied migrations
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.gorename/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	project, err := db.GetProject(ctx, "/path/to/module")
//	locs, err := db.ListOccurrencesBySymbol(ctx, project.ID, "example.com/m/pkg.Foo")
//
// # Transactions
//
// Use transactions for atomic operations:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//	if err := tx.ReplaceOccurrences(ctx, file.ID, occs); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// Reads made through a Tx see the transaction's own writes. Nested
// transactions are not supported.
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler:
//
//	CGO_ENABLED=0 go build ./...
//
// Building with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// The DriverName and BuildMode constants report which driver is linked.
package storage
