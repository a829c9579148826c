// Package lspconv converts rename results to LSP wire types.
package lspconv

import (
	"fmt"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// ToPosition converts a position to an LSP position.
func ToPosition(p types.Position) protocol.Position {
	return protocol.Position{
		Line:      uint32(p.Line),
		Character: uint32(p.Column),
	}
}

// ToRange converts a range to an LSP range.
func ToRange(r types.Range) protocol.Range {
	return protocol.Range{
		Start: ToPosition(r.Begin),
		End:   ToPosition(r.End),
	}
}

// ToTextEdits converts the replacements of an edit. Line and column are
// recomputed from the edit's initial code so ranges built from offsets
// alone convert correctly.
func ToTextEdits(edit types.Edit) []protocol.TextEdit {
	lines := lexer.NewLineIndex(edit.InitialCode)
	out := make([]protocol.TextEdit, 0, len(edit.Replacements))
	for _, r := range edit.Replacements {
		rng := types.Range{
			Begin: lines.Resolve(r.Range.Begin),
			End:   lines.Resolve(r.Range.End),
		}
		out = append(out, protocol.TextEdit{
			Range:   ToRange(rng),
			NewText: r.NewText,
		})
	}
	return out
}

// ToWorkspaceChanges converts file edits to the "changes" map of an LSP
// WorkspaceEdit, keyed by file URI. Empty edits are left out.
func ToWorkspaceChanges(edits types.FileEdits) map[string][]protocol.TextEdit {
	out := make(map[string][]protocol.TextEdit, len(edits))
	for _, path := range edits.Paths() {
		edit := edits[path]
		if edit.Empty() {
			continue
		}
		out[FileURI(path)] = ToTextEdits(edit)
	}
	return out
}

// FileURI returns the file:// URI of an absolute path.
func FileURI(path string) string {
	return string(uri.File(path))
}

// PathFromURI returns the file path of a file:// URI. Plain paths are
// returned unchanged.
func PathFromURI(u string) string {
	if len(u) < len("file://") || u[:len("file://")] != "file://" {
		return u
	}
	return uri.URI(u).Filename()
}

// FromPosition converts an LSP position on text to a full position.
func FromPosition(text string, p protocol.Position) (types.Position, error) {
	lines := lexer.NewLineIndex(text)
	offset, ok := lines.Offset(int(p.Line), int(p.Character))
	if !ok {
		return types.Position{}, fmt.Errorf("%w: line %d is outside the file", types.ErrInvalidInput, p.Line)
	}
	return lines.Position(offset), nil
}
