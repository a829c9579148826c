// Package index answers "where else is this symbol used" from the stored
// occurrence index.
//
// An Index is bound to one project root. It looks occurrences up by the
// symbol key the resolver assigns, converts stored paths to absolute ones
// and caches answers in an LRU keyed by symbol key.
//
// # Basic Usage
//
//	x, err := index.New(store, "/path/to/module", index.Options{})
//	files, err := x.OccurrencesAcrossFiles(ctx, sym)
//	for path, ranges := range files {
//	    fmt.Printf("%s: %d occurrences\n", path, len(ranges))
//	}
//
// # Staleness
//
// Answers describe the files as they were when last indexed. Callers must
// not assume the ranges still match the text on disk; the rename engine
// reconciles them against live lexical occurrences.
//
// # Caching
//
// Cached answers are copied on the way in and out. Invalidate purges the
// cache and forgets the project id, and must be called after a reindex.
// Options.CacheTTL bounds how long an entry is served when reindexing
// happens outside this process.
package index
