package types

import (
	"fmt"
	"sort"
	"strings"
)

// Replacement substitutes NewText for the text covered by Range.
type Replacement struct {
	Range   Range
	NewText string
}

// Edit is a set of replacements against a known snapshot of a file.
// Replacements are sorted by begin offset and never overlap.
type Edit struct {
	InitialCode  string
	Replacements []Replacement
}

// NewEdit sorts the replacements and returns the edit.
func NewEdit(initial string, replacements []Replacement) Edit {
	sorted := append([]Replacement(nil), replacements...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Less(sorted[j].Range)
	})
	return Edit{InitialCode: initial, Replacements: sorted}
}

// Empty reports whether the edit changes nothing.
func (e Edit) Empty() bool {
	return len(e.Replacements) == 0
}

// Validate checks that replacements are in bounds, sorted and disjoint.
func (e Edit) Validate() error {
	prevEnd := 0
	for i, r := range e.Replacements {
		if err := r.Range.Validate(); err != nil {
			return err
		}
		if r.Range.End.Offset > len(e.InitialCode) {
			return fmt.Errorf("%w: %s beyond end of file (%d bytes)", ErrInvalidRange, r.Range, len(e.InitialCode))
		}
		if i > 0 && r.Range.Begin.Offset < prevEnd {
			return fmt.Errorf("%w: %s", ErrOverlappingEdits, r.Range)
		}
		prevEnd = r.Range.End.Offset
	}
	return nil
}

// Apply returns InitialCode with every replacement applied.
func (e Edit) Apply() (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(e.InitialCode))
	last := 0
	for _, r := range e.Replacements {
		b.WriteString(e.InitialCode[last:r.Range.Begin.Offset])
		b.WriteString(r.NewText)
		last = r.Range.End.Offset
	}
	b.WriteString(e.InitialCode[last:])
	return b.String(), nil
}

// Ranges returns the ranges touched by the edit, in order.
func (e Edit) Ranges() []Range {
	out := make([]Range, len(e.Replacements))
	for i, r := range e.Replacements {
		out[i] = r.Range
	}
	return out
}

// FileEdits maps absolute file paths to the edit for that file.
type FileEdits map[string]Edit

// Paths returns the file paths in sorted order.
func (fe FileEdits) Paths() []string {
	paths := make([]string, 0, len(fe))
	for p := range fe {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ReplacementCount returns the total number of replacements across files.
func (fe FileEdits) ReplacementCount() int {
	n := 0
	for _, e := range fe {
		n += len(e.Replacements)
	}
	return n
}
