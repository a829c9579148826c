// Package lexer scans live file text into tokens for occurrence matching.
//
// The scanner is go/scanner run with comments enabled. Comments and the
// semicolons the scanner inserts at line breaks are kept in the stream but
// marked as trivia, so identifier scans never match inside comments or
// string literals, and statement walks see through line breaks.
//
// Tokenize builds the stream once per file snapshot:
//
//	toks := lexer.Tokenize(src)
//	lexed := toks.IdentifierRanges("Foo")
//
// PieceRanges finds the labels of a multi-piece name starting from the
// anchor identifier of its first piece:
//
//	// [obj doSomething:x with:y];
//	ranges, err := toks.PieceRanges(anchor, []string{"doSomething", "with"})
//
// LineIndex converts byte offsets to the 0-based line and UTF-16 column
// pairs LSP clients use, and back.
package lexer
