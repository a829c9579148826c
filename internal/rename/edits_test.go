package rename

import (
	"strings"
	"testing"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(begin, end int) types.Range {
	return types.Range{Begin: types.Position{Offset: begin}, End: types.Position{Offset: end}}
}

func anchors(text, word string) []types.Range {
	toks := lexer.Tokenize(text)
	return toks.IdentifierRanges(word)
}

func TestBuildEdit_SinglePiece(t *testing.T) {
	text := "package m\nfoo" + strings.Repeat(" ", 27) + "foo\n"

	edit, drops, err := BuildEdit("/m.go", text, []types.Range{span(10, 13), span(40, 43)},
		types.ParseSymbolName("foo"), types.ParseSymbolName("bar"), nil)
	require.NoError(t, err)
	assert.Empty(t, drops)
	require.Len(t, edit.Replacements, 2)
	for _, r := range edit.Replacements {
		assert.Equal(t, 3, r.Range.Len())
		assert.Equal(t, "bar", r.NewText)
	}

	out, err := edit.Apply()
	require.NoError(t, err)
	assert.Equal(t, "package m\nbar"+strings.Repeat(" ", 27)+"bar\n", out)
}

func TestBuildEdit_MultiPiece(t *testing.T) {
	text := "[obj doSomething:x with:y];\n"

	edit, drops, err := BuildEdit("/m.go", text, anchors(text, "doSomething"),
		types.ParseSymbolName("doSomething:with:"), types.ParseSymbolName("doThing:using:"), nil)
	require.NoError(t, err)
	assert.Empty(t, drops)
	require.Len(t, edit.Replacements, 2)

	out, err := edit.Apply()
	require.NoError(t, err)
	assert.Equal(t, "[obj doThing:x using:y];\n", out)
}

func TestBuildEdit_MultiPieceMissingLabelDropped(t *testing.T) {
	text := "[obj doSomething:x];\n[obj doSomething:a with:b];\n"
	occ := anchors(text, "doSomething")
	require.Len(t, occ, 2)

	edit, drops, err := BuildEdit("/m.go", text, occ,
		types.ParseSymbolName("doSomething:with:"), types.ParseSymbolName("doThing:using:"), lexer.Tokenize(text))
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.ErrorIs(t, drops[0].Reason, types.ErrPieceNotFound)
	assert.True(t, drops[0].Range.Equal(occ[0]))

	out, err := edit.Apply()
	require.NoError(t, err)
	assert.Equal(t, "[obj doSomething:x];\n[obj doThing:a using:b];\n", out)
}

func TestBuildEdit_MultiPieceStopsAtLineEnd(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"case clause", "switch {\n\tcase x:\n\t\tdoSomething(1)\n\tcase with:\n\t}"},
		{"label", "doSomething(1)\n\tgoto with\nwith:\n"},
		{"next line", "doSomething:x\nwith:y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := anchors(tt.text, "doSomething")
			require.Len(t, occ, 1)

			edit, drops, err := BuildEdit("/m.go", tt.text, occ,
				types.ParseSymbolName("doSomething:with:"), types.ParseSymbolName("doThing:using:"), nil)
			require.NoError(t, err)
			require.Len(t, drops, 1)
			assert.ErrorIs(t, drops[0].Reason, types.ErrPieceNotFound)
			assert.Empty(t, edit.Replacements)

			out, err := edit.Apply()
			require.NoError(t, err)
			assert.Equal(t, tt.text, out)
		})
	}
}

func TestBuildEdit_OverlappingOccurrenceDropped(t *testing.T) {
	text := "[a sel:x sel:y sel:z];"

	edit, drops, err := BuildEdit("/m.go", text, anchors(text, "sel"),
		types.ParseSymbolName("sel:sel:"), types.ParseSymbolName("one:two:"), nil)
	require.NoError(t, err)
	assert.Len(t, drops, 2)

	out, err := edit.Apply()
	require.NoError(t, err)
	assert.Equal(t, "[a one:x two:y sel:z];", out)
}

func TestBuildEdit_StaleOccurrencesDropped(t *testing.T) {
	text := "package m\nvar foo, baz int\n"
	occ := []types.Range{
		span(14, 17), // foo
		span(19, 22), // baz
		span(60, 63), // past end of file
	}

	edit, drops, err := BuildEdit("/m.go", text, occ,
		types.ParseSymbolName("foo"), types.ParseSymbolName("bar"), nil)
	require.NoError(t, err)
	assert.Len(t, drops, 2)
	require.Len(t, edit.Replacements, 1)
	assert.Equal(t, 14, edit.Replacements[0].Range.Begin.Offset)
}

func TestBuildEdit_NeverMoreThanOccurrences(t *testing.T) {
	text := "package m\n\nfunc f() { foo(); foo(); foo() }\n"
	occ := anchors(text, "foo")

	edit, _, err := BuildEdit("/m.go", text, occ,
		types.ParseSymbolName("foo"), types.ParseSymbolName("bar"), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(edit.Replacements), len(occ))
	assert.NoError(t, edit.Validate())
	assert.True(t, types.IsSortedUnique(edit.Ranges()))
}

func TestBuildEdit_PieceCountMismatch(t *testing.T) {
	_, _, err := BuildEdit("/m.go", "foo", []types.Range{span(0, 3)},
		types.ParseSymbolName("foo"), types.ParseSymbolName("a:b:"), nil)
	assert.ErrorIs(t, err, types.ErrPieceCountMismatch)
}

func TestBuildEdit_UnsortedOccurrences(t *testing.T) {
	_, _, err := BuildEdit("/m.go", "foo foo", []types.Range{span(4, 7), span(0, 3)},
		types.ParseSymbolName("foo"), types.ParseSymbolName("bar"), nil)
	assert.ErrorIs(t, err, types.ErrUnsortedRanges)
}
