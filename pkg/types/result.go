package types

import "sort"

// FileSkip records a file that was left out of a cross-file rename and why.
type FileSkip struct {
	Path   string
	Reason error
}

// RenameResult is the outcome of a rename request.
type RenameResult struct {
	// Target is the range of the symbol under the cursor.
	Target Range

	// OldName is the current name of the symbol.
	OldName SymbolName

	// LocalChanges renames the occurrences in the main file.
	LocalChanges Edit

	// GlobalChanges holds edits for every affected file, main file
	// included. Files whose indexed occurrences could not be trusted
	// are absent and listed in Skipped.
	GlobalChanges FileEdits

	// Skipped lists files the index reported but that were dropped.
	Skipped []FileSkip
}

// Complete reports whether every file the index reported was edited.
func (r *RenameResult) Complete() bool {
	return len(r.Skipped) == 0
}

// SortSkipped orders skipped files by path.
func (r *RenameResult) SortSkipped() {
	sort.Slice(r.Skipped, func(i, j int) bool {
		return r.Skipped[i].Path < r.Skipped[j].Path
	})
}
