package rename

import (
	"fmt"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// Drop is an occurrence left out of an edit.
type Drop struct {
	Range  types.Range
	Reason error
}

// BuildEdit produces the replacements that rename every occurrence in one
// file from oldName to newName.
//
// For single-piece names each occurrence is replaced outright. For
// multi-piece names each occurrence is the anchor of the first piece and
// the remaining pieces are found by walking the tokens forward; toks may be
// nil, in which case text is tokenized on demand. Occurrences whose text
// no longer spells the old name, whose pieces cannot be found, or that
// would overlap an earlier occurrence are dropped and returned.
//
// Occurrences must be sorted without duplicates.
func BuildEdit(path, text string, occurrences []types.Range, oldName, newName types.SymbolName, toks *lexer.Tokens) (types.Edit, []Drop, error) {
	if !oldName.SamePieceCount(newName) {
		return types.Edit{}, nil, fmt.Errorf("%w: %s has %d pieces, %s has %d",
			types.ErrPieceCountMismatch, oldName, oldName.Len(), newName, newName.Len())
	}
	if !types.IsSortedUnique(occurrences) {
		return types.Edit{}, nil, fmt.Errorf("%w: occurrences in %s", types.ErrUnsortedRanges, path)
	}
	if toks == nil && oldName.IsMultiPiece() {
		toks = lexer.Tokenize(text)
	}

	var (
		replacements []types.Replacement
		accepted     []types.Range
		drops        []Drop
	)
	for _, occ := range occurrences {
		if got, ok := occ.Text(text); !ok || got != oldName.First() {
			drops = append(drops, Drop{Range: occ, Reason: fmt.Errorf("%w: text at %s is not %q",
				types.ErrInvalidRange, occ, oldName.First())})
			continue
		}

		pieces := []types.Range{occ}
		if oldName.IsMultiPiece() {
			found, err := toks.PieceRanges(occ.Begin.Offset, oldName.Pieces)
			if err != nil {
				drops = append(drops, Drop{Range: occ, Reason: err})
				continue
			}
			pieces = found
		}

		if overlapsAny(pieces, accepted) {
			drops = append(drops, Drop{Range: occ, Reason: fmt.Errorf("%w: %s", types.ErrOverlappingEdits, occ)})
			continue
		}

		for i, piece := range pieces {
			replacements = append(replacements, types.Replacement{Range: piece, NewText: newName.Pieces[i]})
			accepted = append(accepted, piece)
		}
	}

	edit := types.NewEdit(text, replacements)
	if err := edit.Validate(); err != nil {
		return types.Edit{}, drops, fmt.Errorf("failed to build edit for %s: %w", path, err)
	}
	return edit, drops, nil
}

func overlapsAny(candidates, accepted []types.Range) bool {
	for _, c := range candidates {
		for _, a := range accepted {
			if c.Overlaps(a) || c.Equal(a) {
				return true
			}
		}
	}
	return false
}
