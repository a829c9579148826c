// Package indexer builds the cross-file occurrence index for a Go module.
//
// The indexer type-checks every package under a workspace root with
// go/packages, records each identifier that spells a workspace symbol, and
// stores the occurrences in SQLite keyed by the symbol's stable key. The
// rename engine consults this index to find occurrences outside the file
// being edited.
//
// # Basic Usage
//
//	idx := indexer.New(store, logger)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/module", &indexer.Config{
//	    IncludeTests: true,
//	})
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Indexing Pipeline
//
//  1. Discovery: walk the root for .go files, skipping vendor, testdata,
//     hidden directories and (optionally) test files
//  2. Load: packages.Load("./...") with type information
//  3. Plan: the first package variant that compiles a file claims it
//  4. Extract: Defs and Uses whose objects are declared inside the root
//  5. Store: files, symbols and occurrences, one transaction per batch
//  6. Cleanup: drop files that disappeared and symbols left with no occurrences
//
// # Incremental Indexing
//
// A file whose SHA-256 content hash matches the stored hash is skipped.
// Config.Force re-extracts every file. Because a skipped file keeps its
// previous occurrences, an index that has drifted from the sources is
// expected; the rename engine reconciles stale ranges against live text.
//
// # Type Errors
//
// Packages that fail to type-check are still indexed from the partial
// type information. The first load error positioned in a file is recorded
// as the file's parse error and counted in the project health.
//
// # Concurrency
//
// Only one IndexProject runs at a time per Indexer; a concurrent call
// returns ErrIndexingInProgress. Within a run, batches are processed by an
// errgroup bounded by Config.Workers.
package indexer
