// Package types provides shared type definitions for the gorename MCP server.
//
// This package defines the value types passed between the lexer, the
// reconciler, the edit builder and the rename orchestrator, along with the
// sentinel errors every layer wraps.
//
// # Coordinates
//
// A Position carries a byte Offset plus the 0-based line and UTF-16 column
// that LSP clients expect. All ordering and equality use Offset, so ranges
// coming from the index and ranges found by scanning text compare in the
// same coordinate space:
//
//	r := types.Range{
//	    Begin: types.Position{Offset: 12},
//	    End:   types.Position{Offset: 15},
//	}
//	text, ok := r.Text(source)
//
// # Names
//
// SymbolName holds the ordered pieces of a name. Go identifiers have one
// piece; selector-style names have one piece per label:
//
//	types.ParseSymbolName("Foo")                // [Foo]
//	types.ParseSymbolName("doSomething:with:")  // [doSomething with]
//
// # Edits
//
// Edit pairs the initial text of a file with sorted, non-overlapping
// replacements. FileEdits maps absolute paths to edits:
//
//	edit := types.NewEdit(code, []types.Replacement{{Range: r, NewText: "Bar"}})
//	updated, err := edit.Apply()
//
// # Errors
//
// Every failure kind has a sentinel error so callers can branch with
// errors.Is. TooManyFilesError also exposes the affected file count:
//
//	var tooMany *types.TooManyFilesError
//	if errors.As(err, &tooMany) {
//	    fmt.Println(tooMany.Count)
//	}
package types
