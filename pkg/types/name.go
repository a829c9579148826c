package types

import (
	"fmt"
	"go/token"
	"strings"
)

// SymbolName is the ordered list of pieces that spell a symbol's name.
// Plain identifiers have one piece; selector-style names such as
// "doSomething:with:" have one piece per label.
type SymbolName struct {
	Pieces []string
}

// NewSymbolName builds a name from explicit pieces.
func NewSymbolName(pieces ...string) SymbolName {
	return SymbolName{Pieces: append([]string(nil), pieces...)}
}

// ParseSymbolName splits a name on ':' into pieces. A single trailing
// colon is allowed, so "a:b:" and "a:b" both yield [a b].
func ParseSymbolName(name string) SymbolName {
	if !strings.Contains(name, ":") {
		return SymbolName{Pieces: []string{name}}
	}
	pieces := strings.Split(name, ":")
	if len(pieces) > 1 && pieces[len(pieces)-1] == "" {
		pieces = pieces[:len(pieces)-1]
	}
	return SymbolName{Pieces: pieces}
}

// Len returns the number of pieces.
func (n SymbolName) Len() int {
	return len(n.Pieces)
}

// First returns the first piece, which is what identifier scans look for.
func (n SymbolName) First() string {
	if len(n.Pieces) == 0 {
		return ""
	}
	return n.Pieces[0]
}

// IsMultiPiece reports whether the name has more than one piece.
func (n SymbolName) IsMultiPiece() bool {
	return len(n.Pieces) > 1
}

// SamePieceCount reports whether both names have the same number of pieces.
func (n SymbolName) SamePieceCount(other SymbolName) bool {
	return len(n.Pieces) == len(other.Pieces)
}

// Equal compares names piece by piece.
func (n SymbolName) Equal(other SymbolName) bool {
	if !n.SamePieceCount(other) {
		return false
	}
	for i := range n.Pieces {
		if n.Pieces[i] != other.Pieces[i] {
			return false
		}
	}
	return true
}

// Validate checks that the name has at least one piece and every piece is
// a valid, non-keyword identifier.
func (n SymbolName) Validate() error {
	if len(n.Pieces) == 0 {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	for _, piece := range n.Pieces {
		if !token.IsIdentifier(piece) {
			return fmt.Errorf("%w: %q is not an identifier", ErrInvalidName, piece)
		}
	}
	return nil
}

// String renders single-piece names as-is and multi-piece names with a
// colon after every piece.
func (n SymbolName) String() string {
	if len(n.Pieces) == 1 {
		return n.Pieces[0]
	}
	var b strings.Builder
	for _, piece := range n.Pieces {
		b.WriteString(piece)
		b.WriteByte(':')
	}
	return b.String()
}
