package lexer

import (
	"go/scanner"
	"go/token"
	"sort"
	"strings"

	"github.com/dshills/gorename-mcp/pkg/types"
)

// Token is one lexical token of a file.
type Token struct {
	Kind  token.Token
	Lit   string
	Range types.Range

	// Implicit marks semicolons the scanner inserted at line breaks.
	Implicit bool
}

// Trivia reports whether the token is skipped when walking a statement.
func (t Token) Trivia() bool {
	return t.Kind == token.COMMENT
}

// Tokens is the token stream of one file snapshot.
type Tokens struct {
	text   string
	lines  *LineIndex
	toks   []Token
	errors int
}

// Tokenize scans text into tokens. Scan errors do not stop the scan; the
// stream covers whatever the scanner could recover.
func Tokenize(text string) *Tokens {
	src := []byte(text)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	t := &Tokens{text: text, lines: NewLineIndex(text)}

	var s scanner.Scanner
	s.Init(file, src, func(token.Position, string) { t.errors++ }, scanner.ScanComments)

	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		begin := file.Offset(pos)
		implicit := tok == token.SEMICOLON && lit != ";"
		end := begin + tokenLen(text, begin, tok, lit)
		if implicit {
			end = begin
		}
		t.toks = append(t.toks, Token{
			Kind:     tok,
			Lit:      tokenText(tok, lit),
			Range:    t.lines.Range(begin, end),
			Implicit: implicit,
		})
	}
	return t
}

// tokenLen returns the source length of a token. Comments and raw strings
// are measured on the source since the scanner strips carriage returns
// from their literal values.
func tokenLen(text string, begin int, tok token.Token, lit string) int {
	switch {
	case tok == token.COMMENT && strings.HasPrefix(text[begin:], "/*"):
		if end := strings.Index(text[begin+2:], "*/"); end >= 0 {
			return end + 4
		}
		return len(text) - begin
	case tok == token.COMMENT:
		if end := strings.IndexByte(text[begin:], '\n'); end >= 0 {
			if end > 0 && text[begin+end-1] == '\r' {
				end--
			}
			return end
		}
		return len(text) - begin
	case tok == token.STRING && strings.HasPrefix(text[begin:], "`"):
		if end := strings.IndexByte(text[begin+1:], '`'); end >= 0 {
			return end + 2
		}
		return len(text) - begin
	case tok.IsLiteral() || tok == token.ILLEGAL:
		return len(lit)
	default:
		return len(tok.String())
	}
}

func tokenText(tok token.Token, lit string) string {
	if lit != "" {
		return lit
	}
	return tok.String()
}

// Text returns the file snapshot the tokens were produced from.
func (t *Tokens) Text() string {
	return t.text
}

// Lines returns the line index of the snapshot.
func (t *Tokens) Lines() *LineIndex {
	return t.lines
}

// Len returns the number of tokens, trivia included.
func (t *Tokens) Len() int {
	return len(t.toks)
}

// At returns the i-th token.
func (t *Tokens) At(i int) Token {
	return t.toks[i]
}

// ErrorCount returns the number of scan errors seen.
func (t *Tokens) ErrorCount() int {
	return t.errors
}

// IndexAt returns the index of the token starting at offset.
func (t *Tokens) IndexAt(offset int) (int, bool) {
	i := sort.Search(len(t.toks), func(i int) bool {
		return t.toks[i].Range.Begin.Offset >= offset
	})
	for ; i < len(t.toks) && t.toks[i].Range.Begin.Offset == offset; i++ {
		if !t.toks[i].Implicit {
			return i, true
		}
	}
	return 0, false
}

// IdentifierRanges returns the range of every identifier token spelled
// name, in source order. Comments and string literals are not searched.
func (t *Tokens) IdentifierRanges(name string) []types.Range {
	var out []types.Range
	for _, tok := range t.toks {
		if tok.Kind == token.IDENT && tok.Lit == name {
			out = append(out, tok.Range)
		}
	}
	return out
}
