package reconcile

import (
	"fmt"

	"github.com/dshills/gorename-mcp/pkg/types"
)

const (
	// SkipPenalty is charged for every indexed occurrence left unmapped.
	SkipPenalty = 2

	// DriftPenalty is charged when a match shifts by a different amount
	// than the match before it.
	DriftPenalty = 1

	// Unmapped marks an indexed occurrence with no lexed counterpart.
	Unmapped = -1
)

// Alignment maps each indexed occurrence to a lexed one.
type Alignment struct {
	// Mapped has one entry per indexed range: the index of the lexed
	// range it maps to, or Unmapped. Mapped lexed indices are strictly
	// increasing.
	Mapped []int

	// Cost is the adjustment cost of the mapping. Zero means every
	// indexed occurrence was found shifted by the same amount.
	Cost int

	// Displacement is the summed absolute shift of all matches, used to
	// prefer the nearest candidates among equally cheap mappings.
	Displacement int
}

// MatchedCount returns the number of mapped indexed occurrences.
func (a *Alignment) MatchedCount() int {
	n := 0
	for _, j := range a.Mapped {
		if j != Unmapped {
			n++
		}
	}
	return n
}

type score struct {
	cost int
	disp int
}

func (s score) less(o score) bool {
	if s.cost != o.cost {
		return s.cost < o.cost
	}
	return s.disp < o.disp
}

type link uint8

const (
	linkNone link = iota
	// match cells
	linkFirst     // first match on the path, earlier indexed skipped
	linkAfterAny  // follows any path, drift assumed to change
	linkSameDrift // follows a match with the same drift
	// best cells
	linkMatchHere
	linkSkipIndexed
	linkSkipLexed
)

type cell struct {
	s      score
	ok     bool
	from   link
	pi, pj int
}

type chain struct {
	base score
	i, j int
}

// Match computes the cheapest order-preserving, injective mapping from
// indexed to lexed.
//
// The cost of a mapping is SkipPenalty per unmapped indexed occurrence
// plus DriftPenalty each time the shift between an indexed offset and its
// lexed offset differs from the previous match's shift. The first match
// sets the shift for free, so a file where text was only inserted or
// removed above the symbol reconciles at cost zero. Skipping a lexed
// occurrence is free. Ties are broken by total displacement.
//
// Both inputs must be sorted and no two indexed ranges may begin at the
// same offset. An empty lexed list with a non-empty indexed list yields
// ErrNoMapping.
func Match(indexed, lexed []types.Range) (*Alignment, error) {
	if !types.IsSortedUnique(indexed) {
		return nil, fmt.Errorf("%w: indexed occurrences", types.ErrUnsortedRanges)
	}
	for i := 1; i < len(indexed); i++ {
		if indexed[i].Begin.Offset == indexed[i-1].Begin.Offset {
			return nil, fmt.Errorf("%w: indexed occurrences %s and %s begin at the same offset",
				types.ErrUnsortedRanges, indexed[i-1], indexed[i])
		}
	}
	if !types.IsSorted(lexed) {
		return nil, fmt.Errorf("%w: lexed occurrences", types.ErrUnsortedRanges)
	}

	n, m := len(indexed), len(lexed)
	if n == 0 {
		return &Alignment{Mapped: []int{}}, nil
	}
	if m == 0 {
		return nil, types.ErrNoMapping
	}

	width := m + 1
	at := func(i, j int) int { return i*width + j }
	match := make([]cell, (n+1)*width)
	best := make([]cell, (n+1)*width)

	// chains[d] holds the best match with shift d seen in earlier rows,
	// normalized so that skipping up to row i costs base.cost + (i-1)*SkipPenalty.
	chains := make(map[int]chain)

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			d := lexed[j-1].Begin.Offset - indexed[i-1].Begin.Offset
			ad := abs(d)

			c := cell{s: score{cost: (i - 1) * SkipPenalty, disp: ad}, ok: true, from: linkFirst}
			if prev := best[at(i-1, j-1)]; prev.ok {
				s := score{cost: prev.s.cost + DriftPenalty, disp: prev.s.disp + ad}
				if s.less(c.s) {
					c = cell{s: s, ok: true, from: linkAfterAny, pi: i - 1, pj: j - 1}
				}
			}
			if ch, found := chains[d]; found {
				s := score{cost: ch.base.cost + (i-1)*SkipPenalty, disp: ch.base.disp + ad}
				if !c.s.less(s) {
					c = cell{s: s, ok: true, from: linkSameDrift, pi: ch.i, pj: ch.j}
				}
			}
			match[at(i, j)] = c

			b := cell{s: c.s, ok: true, from: linkMatchHere}
			if up := best[at(i-1, j)]; up.ok {
				s := score{cost: up.s.cost + SkipPenalty, disp: up.s.disp}
				if s.less(b.s) {
					b = cell{s: s, ok: true, from: linkSkipIndexed}
				}
			}
			if left := best[at(i, j-1)]; left.ok && left.s.less(b.s) {
				b = cell{s: left.s, ok: true, from: linkSkipLexed}
			}
			best[at(i, j)] = b
		}

		for j := 1; j <= m; j++ {
			c := match[at(i, j)]
			d := lexed[j-1].Begin.Offset - indexed[i-1].Begin.Offset
			base := score{cost: c.s.cost - i*SkipPenalty, disp: c.s.disp}
			if ch, found := chains[d]; !found || base.less(ch.base) {
				chains[d] = chain{base: base, i: i, j: j}
			}
		}
	}

	mapped := make([]int, n)
	for i := range mapped {
		mapped[i] = Unmapped
	}

	final := best[at(n, m)]
	if !final.ok || (score{cost: n * SkipPenalty}).less(final.s) {
		return &Alignment{Mapped: mapped, Cost: n * SkipPenalty}, nil
	}

	i, j := n, m
	inMatch := false
	for i > 0 && j > 0 {
		if !inMatch {
			switch best[at(i, j)].from {
			case linkMatchHere:
				inMatch = true
			case linkSkipIndexed:
				i--
			case linkSkipLexed:
				j--
			default:
				return nil, fmt.Errorf("corrupt alignment table at (%d, %d)", i, j)
			}
			continue
		}
		c := match[at(i, j)]
		mapped[i-1] = j - 1
		switch c.from {
		case linkFirst:
			i, j = 0, 0
		case linkAfterAny:
			i, j = c.pi, c.pj
			inMatch = false
		case linkSameDrift:
			i, j = c.pi, c.pj
		default:
			return nil, fmt.Errorf("corrupt alignment table at (%d, %d)", i, j)
		}
	}

	return &Alignment{Mapped: mapped, Cost: final.s.cost, Displacement: final.s.disp}, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
