package lexer

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dshills/gorename-mcp/pkg/types"
)

// LineIndex converts between byte offsets and line/UTF-16 column pairs.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex records the start offset of every line in text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// Position returns the full position for a byte offset. Offsets past the
// end are clamped.
func (li *LineIndex) Position(offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.text) {
		offset = len(li.text)
	}
	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
	return types.Position{
		Offset: offset,
		Line:   line,
		Column: utf16Len(li.text[li.starts[line]:offset]),
	}
}

// Range builds a range from two byte offsets.
func (li *LineIndex) Range(begin, end int) types.Range {
	return types.Range{Begin: li.Position(begin), End: li.Position(end)}
}

// Offset converts a 0-based line and UTF-16 column into a byte offset.
// Columns beyond the end of the line clamp to the line end.
func (li *LineIndex) Offset(line, column int) (int, bool) {
	if line < 0 || line >= len(li.starts) || column < 0 {
		return 0, false
	}
	start := li.starts[line]
	end := len(li.text)
	if line+1 < len(li.starts) {
		end = li.starts[line+1] - 1
	}
	offset := start
	units := 0
	for offset < end && units < column {
		r, size := utf8.DecodeRuneInString(li.text[offset:])
		units += utf16.RuneLen(r)
		if units > column {
			break
		}
		offset += size
	}
	return offset, true
}

// Resolve fills in Line and Column for a position that only has Offset.
func (li *LineIndex) Resolve(pos types.Position) types.Position {
	return li.Position(pos.Offset)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
