package types

import (
	"fmt"
	"sort"
)

// Position is a location in one file's text.
//
// Offset is the byte offset into the file and is the coordinate every
// comparison uses. Line and Column are the 0-based, UTF-16 view expected
// by LSP clients; they are derived from Offset and never compared.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Less reports whether p sorts before other.
func (p Position) Less(other Position) bool {
	return p.Offset < other.Offset
}

// String renders the position as line:column (1-based) for messages.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Range is a half-open span [Begin, End) within a single file.
type Range struct {
	Begin Position
	End   Position
}

// Validate checks that the range is well formed
func (r Range) Validate() error {
	if r.Begin.Offset < 0 || r.End.Offset < r.Begin.Offset {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, r.Begin.Offset, r.End.Offset)
	}
	return nil
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End.Offset - r.Begin.Offset
}

// Equal compares ranges by offset.
func (r Range) Equal(other Range) bool {
	return r.Begin.Offset == other.Begin.Offset && r.End.Offset == other.End.Offset
}

// Less orders ranges by begin offset, then end offset.
func (r Range) Less(other Range) bool {
	if r.Begin.Offset != other.Begin.Offset {
		return r.Begin.Offset < other.Begin.Offset
	}
	return r.End.Offset < other.End.Offset
}

// Overlaps reports whether the two ranges share at least one byte.
// Empty ranges never overlap anything.
func (r Range) Overlaps(other Range) bool {
	if r.Len() == 0 || other.Len() == 0 {
		return false
	}
	return r.Begin.Offset < other.End.Offset && other.Begin.Offset < r.End.Offset
}

// Contains reports whether offset falls inside [Begin, End).
func (r Range) Contains(offset int) bool {
	return r.Begin.Offset <= offset && offset < r.End.Offset
}

// Text returns the slice of text covered by the range, or false when the
// range does not fit inside text.
func (r Range) Text(text string) (string, bool) {
	if r.Validate() != nil || r.End.Offset > len(text) {
		return "", false
	}
	return text[r.Begin.Offset:r.End.Offset], true
}

// String renders the range for log fields and error messages.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Begin.Offset, r.End.Offset)
}

// SortRanges sorts ranges in place by begin offset.
func SortRanges(ranges []Range) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Less(ranges[j])
	})
}

// IsSortedUnique reports whether ranges are strictly increasing, i.e.
// sorted with no duplicates.
func IsSortedUnique(ranges []Range) bool {
	for i := 1; i < len(ranges); i++ {
		if !ranges[i-1].Less(ranges[i]) {
			return false
		}
	}
	return true
}

// UniqueRanges returns a sorted copy of ranges with duplicates removed.
func UniqueRanges(ranges []Range) []Range {
	out := append([]Range(nil), ranges...)
	SortRanges(out)
	n := 0
	for i := range out {
		if n > 0 && out[n-1].Equal(out[i]) {
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// IsSorted reports whether ranges are in non-decreasing order.
func IsSorted(ranges []Range) bool {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Less(ranges[i-1]) {
			return false
		}
	}
	return true
}

// EqualRanges compares two range lists element by element.
func EqualRanges(a, b []Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Provenance records where an occurrence came from.
type Provenance string

const (
	// ProvenanceIndexed marks an occurrence reported by the symbol index.
	ProvenanceIndexed Provenance = "indexed"
	// ProvenanceLexed marks an occurrence found by scanning live text.
	ProvenanceLexed Provenance = "lexed"
)

// Occurrence is a range in a named file together with its provenance.
type Occurrence struct {
	Path       string
	Range      Range
	Provenance Provenance
}
