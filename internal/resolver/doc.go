// Package resolver identifies the symbol under a cursor using go/packages
// and go/types, and finds that symbol's occurrences in the same file.
//
// The caller's text for the file is passed as an overlay, so unsaved edits
// are type-checked as they are. Loads are cached by file path and content
// hash, so a Resolve followed by OccurrencesInFile on the same text loads
// the package once.
//
// # Basic Usage
//
//	r, err := resolver.New(resolver.Config{Root: "/path/to/module"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sym, err := r.Resolve(ctx, path, text, pos)
//	ranges, err := r.OccurrencesInFile(ctx, sym, path, text)
//
// # Symbol Keys
//
// Symbols that can be referenced from other files get a key derived from
// their declaration (see Keys). The indexer stores occurrences under the
// same keys, which is how a live symbol is joined with the index.
//
// # Renamability
//
// Resolve refuses built-ins, package names, the blank identifier,
// embedded fields, init and main, and anything declared outside the
// workspace root, wrapping types.ErrNotRenamable.
//
// # Interface Satisfaction
//
// Renaming one side of an interface satisfaction alone would break it. For
// a method, Resolve collects the interface and concrete methods linked to
// it and reports their keys in Symbol.Related; OccurrencesInFile then
// matches all of them. Interfaces are looked up in the file's package and
// its imports only. A method linked to one declared outside the workspace,
// such as a String method satisfying fmt.Stringer, cannot be renamed.
package resolver
