// Package format reformats rename edits with gofmt.
package format

import (
	"fmt"
	goformat "go/format"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// Gofmt formats the result of an edit with go/format.
type Gofmt struct{}

// Format applies edit, formats the resulting source and returns a single
// replacement covering the smallest span that differs from the initial
// code. An edit that changes nothing is returned as is.
func (Gofmt) Format(path string, edit types.Edit) (types.Edit, error) {
	if edit.Empty() {
		return edit, nil
	}

	applied, err := edit.Apply()
	if err != nil {
		return types.Edit{}, fmt.Errorf("failed to apply edit to %s: %w", path, err)
	}

	formatted, err := goformat.Source([]byte(applied))
	if err != nil {
		return types.Edit{}, fmt.Errorf("failed to format %s: %w", path, err)
	}

	return Diff(edit.InitialCode, string(formatted)), nil
}

// Diff returns an edit turning before into after with at most one
// replacement, found by trimming the common prefix and suffix.
func Diff(before, after string) types.Edit {
	if before == after {
		return types.Edit{InitialCode: before}
	}

	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}

	lines := lexer.NewLineIndex(before)
	return types.Edit{
		InitialCode: before,
		Replacements: []types.Replacement{{
			Range:   lines.Range(prefix, len(before)-suffix),
			NewText: after[prefix : len(after)-suffix],
		}},
	}
}
