package lexer

import (
	"fmt"
	"go/token"

	"github.com/dshills/gorename-mcp/pkg/types"
)

// Cursor walks the token stream forward, skipping comments. Implicit
// semicolons are returned so callers can tell where a line ends a
// statement.
type Cursor struct {
	toks *Tokens
	next int
}

// Cursor returns a cursor positioned on token index i.
func (t *Tokens) Cursor(i int) *Cursor {
	return &Cursor{toks: t, next: i}
}

// Next returns the next significant token.
func (c *Cursor) Next() (Token, bool) {
	for c.next < len(c.toks.toks) {
		tok := c.toks.toks[c.next]
		c.next++
		if !tok.Trivia() {
			return tok, true
		}
	}
	return Token{}, false
}

// Peek returns the next significant token without consuming it.
func (c *Cursor) Peek() (Token, bool) {
	saved := c.next
	tok, ok := c.Next()
	c.next = saved
	return tok, ok
}

// PieceRanges locates every piece of a multi-piece name starting from the
// identifier at anchor. The first piece must be the identifier at anchor;
// each following piece must appear, in order, as "piece :" at the anchor's
// nesting depth before the statement ends. The statement ends at a
// semicolon at the anchor's depth (explicit, or inserted at a line break),
// at a closing bracket that leaves the anchor's depth, or at end of file.
// Line breaks inside brackets do not end it.
func (t *Tokens) PieceRanges(anchor int, pieces []string) ([]types.Range, error) {
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no pieces", types.ErrPieceNotFound)
	}
	idx, ok := t.IndexAt(anchor)
	if !ok {
		return nil, fmt.Errorf("%w: no token at offset %d", types.ErrPieceNotFound, anchor)
	}
	first := t.toks[idx]
	if first.Kind != token.IDENT || first.Lit != pieces[0] {
		return nil, fmt.Errorf("%w: %q at offset %d", types.ErrPieceNotFound, pieces[0], anchor)
	}

	ranges := make([]types.Range, 0, len(pieces))
	ranges = append(ranges, first.Range)

	cur := t.Cursor(idx + 1)
	depth := 0
	for _, piece := range pieces[1:] {
		found := false
		for !found {
			tok, ok := cur.Next()
			if !ok {
				return nil, fmt.Errorf("%w: %q before end of file", types.ErrPieceNotFound, piece)
			}
			switch tok.Kind {
			case token.LPAREN, token.LBRACK, token.LBRACE:
				depth++
			case token.RPAREN, token.RBRACK, token.RBRACE:
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("%w: %q before end of expression", types.ErrPieceNotFound, piece)
				}
			case token.SEMICOLON:
				if depth == 0 {
					return nil, fmt.Errorf("%w: %q before end of statement", types.ErrPieceNotFound, piece)
				}
			case token.IDENT:
				if depth != 0 || tok.Lit != piece {
					continue
				}
				if next, ok := cur.Peek(); ok && next.Kind == token.COLON {
					ranges = append(ranges, tok.Range)
					cur.Next()
					found = true
				}
			}
		}
	}
	return ranges, nil
}
