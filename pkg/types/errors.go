package types

import (
	"errors"
	"fmt"
)

// Domain errors for rename requests
var (
	// Input errors
	ErrInvalidInput = errors.New("invalid rename input")
	ErrInvalidRange = errors.New("invalid range")
	ErrInvalidName  = errors.New("invalid name")

	// Resolution errors
	ErrSymbolNotFound = errors.New("no symbol found at position")
	ErrNotRenamable   = errors.New("symbol cannot be renamed")

	// Unsupported renames
	ErrPieceCountMismatch = errors.New("new name has a different number of pieces than the old name")
	ErrSameName           = errors.New("new name is the same as the old one")

	// Scope errors
	ErrCrossFileNotAllowed = errors.New("symbol is used in other files and cross-file rename is disabled")
	ErrTooManyFiles        = errors.New("rename affects too many files")

	// Per-file errors
	ErrFileUnreadable      = errors.New("file could not be read")
	ErrNoAcceptableMapping = errors.New("indexed occurrences do not match the current file")
	ErrNoMapping           = errors.New("no lexed occurrences to map onto")
	ErrPieceNotFound       = errors.New("selector piece not found")
	ErrUnsortedRanges      = errors.New("ranges are not sorted or contain duplicates")
	ErrOverlappingEdits    = errors.New("replacements overlap")
)

// TooManyFilesError carries the number of affected files when a rename
// exceeds the configured limit.
type TooManyFilesError struct {
	Count int
	Limit int
}

func (e *TooManyFilesError) Error() string {
	return fmt.Sprintf("rename affects %d files, more than the limit of %d", e.Count, e.Limit)
}

// Is makes errors.Is(err, ErrTooManyFiles) match.
func (e *TooManyFilesError) Is(target error) bool {
	return target == ErrTooManyFiles
}
