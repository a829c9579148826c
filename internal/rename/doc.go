// Package rename computes the edits for renaming a symbol across files.
//
// Rename is the entry point. It resolves the symbol under the cursor,
// renames its main-file occurrences from the resolver's up-to-date view,
// then asks the index where else the symbol occurs. Each of those files is
// read, its indexed occurrences are reconciled against the current text
// (see package reconcile) and BuildEdit turns the surviving ranges into
// replacements. Files are processed concurrently and combined in path
// order, so the result does not depend on scheduling.
//
// # Partial results
//
// A file that cannot be read or reconciled does not fail the request. It
// is left out of GlobalChanges and reported in RenameResult.Skipped:
//
//	res, err := rename.Rename(ctx, rename.Inputs{
//	    Pos:          types.Position{Line: 12, Column: 5},
//	    NewName:      &newName,
//	    MainFilePath: path,
//	    MainFileText: text,
//	    Resolver:     resolver,
//	    Index:        idx,
//	    FS:           fsys.OS{},
//	    Options:      rename.DefaultOptions(),
//	})
//	if err != nil {
//	    return err
//	}
//	for _, skip := range res.Skipped {
//	    log.Printf("not renamed in %s: %v", skip.Path, skip.Reason)
//	}
//
// Request-level problems are errors: an unresolvable symbol, an invalid or
// unchanged new name, a piece count mismatch, cross-file use when cross
// file renames are disabled, or more affected files than Options.LimitFiles.
//
// # Multi-piece names
//
// Names are sequences of pieces. For names with several pieces each
// occurrence marks the first piece and the remaining labels are located by
// walking the statement's tokens; occurrences whose labels cannot be found
// are dropped from the edit.
package rename
