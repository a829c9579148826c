package reconcile

import (
	"fmt"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// Policy controls when a mapping is trusted.
type Policy struct {
	// MaxCostPerOccurrence bounds the accepted cost at this many units
	// per indexed occurrence.
	MaxCostPerOccurrence int
}

// DefaultPolicy accepts a mapping costing at most one unit per indexed
// occurrence.
func DefaultPolicy() Policy {
	return Policy{MaxCostPerOccurrence: 1}
}

// Threshold returns the highest accepted cost for n indexed occurrences.
func (p Policy) Threshold(n int) int {
	return p.MaxCostPerOccurrence * n
}

// Reconcile maps occurrences reported by a possibly stale index onto the
// identifiers actually present in toks, returning the lexed ranges to edit.
//
// When the indexed ranges are exactly the lexed ones they are returned
// unchanged. Otherwise the ranges are aligned with Match and the alignment
// is accepted only if its cost is within the policy's threshold; unmapped
// indexed occurrences are dropped.
func Reconcile(toks *lexer.Tokens, identifier string, indexed []types.Range, policy Policy) ([]types.Range, error) {
	if !types.IsSortedUnique(indexed) {
		return nil, fmt.Errorf("%w: indexed occurrences", types.ErrUnsortedRanges)
	}

	lexed := toks.IdentifierRanges(identifier)
	if types.EqualRanges(indexed, lexed) {
		return indexed, nil
	}

	alignment, err := Match(indexed, lexed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrNoAcceptableMapping, err)
	}

	if limit := policy.Threshold(len(indexed)); alignment.Cost > limit {
		return nil, fmt.Errorf("%w: cost %d exceeds %d for %d occurrences",
			types.ErrNoAcceptableMapping, alignment.Cost, limit, len(indexed))
	}

	out := make([]types.Range, 0, len(indexed))
	for _, j := range alignment.Mapped {
		if j != Unmapped {
			out = append(out, lexed[j])
		}
	}
	return out, nil
}
