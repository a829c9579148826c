// Package reconcile decides whether occurrences reported by a stale index
// can be trusted against a file's current text, and repairs them if so.
//
// Match aligns indexed ranges with the ranges found by lexing the file.
// The alignment is a dynamic program over (indexed, lexed) prefixes:
//
//	match        indexed[i] -> lexed[j]    free if its shift equals the
//	                                       previous match's shift,
//	                                       DriftPenalty otherwise
//	skip indexed indexed[i] dropped        SkipPenalty
//	skip lexed   lexed[j] left alone       free
//
// The first match on a path sets the shift without cost, so text inserted
// above every occurrence does not count against the file. Among mappings
// of equal cost the one with the smallest total shift wins.
//
// Reconcile runs the match for one file and accepts it when the cost stays
// within Policy.Threshold:
//
//	ranges, err := reconcile.Reconcile(toks, "Foo", indexed, reconcile.DefaultPolicy())
//	if errors.Is(err, types.ErrNoAcceptableMapping) {
//	    // leave the file out of the rename
//	}
package reconcile
