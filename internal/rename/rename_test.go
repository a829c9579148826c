package rename

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gorename-mcp/internal/fsys"
	"github.com/dshills/gorename-mcp/pkg/types"
)

const mainPath = "/ws/main.go"

// mainText has foo at [10,13) and [40,43).
var mainText = "package m\nfoo" + strings.Repeat(" ", 27) + "foo\n"

type fakeResolver struct {
	sym      *types.Symbol
	local    []types.Range
	err      error
	resolved types.Position
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string, pos types.Position) (*types.Symbol, error) {
	f.resolved = pos
	if f.err != nil {
		return nil, f.err
	}
	return f.sym, nil
}

func (f *fakeResolver) OccurrencesInFile(context.Context, *types.Symbol, string, string) ([]types.Range, error) {
	return f.local, nil
}

type fakeIndex struct {
	occurrences map[string][]types.Range
	err         error
}

func (f *fakeIndex) OccurrencesAcrossFiles(context.Context, *types.Symbol) (map[string][]types.Range, error) {
	return f.occurrences, f.err
}

type fakeFormatter struct {
	err   error
	calls int
}

func (f *fakeFormatter) Format(_ string, edit types.Edit) (types.Edit, error) {
	f.calls++
	if f.err != nil {
		return types.Edit{}, f.err
	}
	out := edit
	out.Replacements = append([]types.Replacement(nil), edit.Replacements...)
	for i := range out.Replacements {
		out.Replacements[i].NewText += "_fmt"
	}
	return out, nil
}

func fooSymbol() *types.Symbol {
	return &types.Symbol{
		Key:   "example.com/m.foo",
		Name:  types.ParseSymbolName("foo"),
		Kind:  types.KindFunction,
		Range: span(10, 13),
	}
}

func newName(s string) *string {
	return &s
}

func localInputs() Inputs {
	return Inputs{
		Pos:          types.Position{Line: 1, Column: 0},
		NewName:      newName("bar"),
		MainFilePath: mainPath,
		MainFileText: mainText,
		Resolver:     &fakeResolver{sym: fooSymbol(), local: []types.Range{span(40, 43), span(10, 13)}},
		Options:      DefaultOptions(),
	}
}

func crossFileInputs(files map[string]string, indexed map[string][]types.Range) Inputs {
	in := localInputs()
	mem := fsys.NewMemFS()
	for path, content := range files {
		mem.Set(path, content)
	}
	in.FS = mem
	in.Index = &fakeIndex{occurrences: indexed}
	return in
}

func TestRename_LocalOnly(t *testing.T) {
	in := localInputs()
	res, err := Rename(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "foo", res.OldName.String())
	require.Len(t, res.LocalChanges.Replacements, 2)
	for _, r := range res.LocalChanges.Replacements {
		assert.Equal(t, 3, r.Range.Len())
		assert.Equal(t, "bar", r.NewText)
	}
	assert.Equal(t, 10, res.LocalChanges.Replacements[0].Range.Begin.Offset)
	assert.Equal(t, 40, res.LocalChanges.Replacements[1].Range.Begin.Offset)

	require.Contains(t, res.GlobalChanges, mainPath)
	assert.Len(t, res.GlobalChanges, 1)
	assert.True(t, res.Complete())

	resolver := in.Resolver.(*fakeResolver)
	assert.Equal(t, 10, resolver.resolved.Offset)
}

func TestRename_FakeRename(t *testing.T) {
	in := localInputs()
	in.NewName = nil

	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "foo", res.OldName.String())
	assert.Equal(t, 10, res.Target.Begin.Offset)
	assert.True(t, res.LocalChanges.Empty())
	assert.Empty(t, res.GlobalChanges)
}

func TestRename_NameValidation(t *testing.T) {
	tests := []struct {
		name    string
		newName string
		want    error
	}{
		{"piece count", "doThing:using:", types.ErrPieceCountMismatch},
		{"not an identifier", "1bar", types.ErrInvalidName},
		{"keyword", "func", types.ErrInvalidName},
		{"same name", "foo", types.ErrSameName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := localInputs()
			in.NewName = newName(tt.newName)
			_, err := Rename(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRename_InvalidInputs(t *testing.T) {
	in := localInputs()
	in.Index = &fakeIndex{}
	_, err := Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	in = localInputs()
	in.Resolver = nil
	_, err = Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	in = localInputs()
	in.Pos = types.Position{Line: 99}
	_, err = Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestRename_ResolverError(t *testing.T) {
	in := localInputs()
	in.Resolver = &fakeResolver{err: types.ErrSymbolNotFound}
	_, err := Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrSymbolNotFound)
}

func TestRename_CrossFileReconciliation(t *testing.T) {
	original := strings.Repeat(" ", 100) + "foo()\n"
	files := map[string]string{
		"/ws/b.go": "abcd\n" + original,         // shifted by five bytes
		"/ws/c.go": "package c\n\nfunc other()\n", // symbol removed
	}
	indexed := map[string][]types.Range{
		mainPath:   {span(10, 13), span(40, 43)},
		"/ws/b.go": {span(100, 103)},
		"/ws/c.go": {span(20, 23), span(40, 43)},
	}

	res, err := Rename(context.Background(), crossFileInputs(files, indexed))
	require.NoError(t, err)

	assert.Equal(t, []string{"/ws/b.go", mainPath}, res.GlobalChanges.Paths())
	b := res.GlobalChanges["/ws/b.go"]
	require.Len(t, b.Replacements, 1)
	assert.Equal(t, 105, b.Replacements[0].Range.Begin.Offset)
	assert.Equal(t, 108, b.Replacements[0].Range.End.Offset)
	assert.Equal(t, "bar", b.Replacements[0].NewText)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "/ws/c.go", res.Skipped[0].Path)
	assert.ErrorIs(t, res.Skipped[0].Reason, types.ErrNoMapping)
	assert.False(t, res.Complete())
}

func TestRename_UnreadableFileSkipped(t *testing.T) {
	indexed := map[string][]types.Range{
		"/ws/gone.go": {span(0, 3)},
	}
	res, err := Rename(context.Background(), crossFileInputs(nil, indexed))
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.ErrorIs(t, res.Skipped[0].Reason, types.ErrFileUnreadable)
	assert.Equal(t, []string{mainPath}, res.GlobalChanges.Paths())
}

func TestRename_EmptyFileEditsOmitted(t *testing.T) {
	files := map[string]string{"/ws/e.go": "package e\n"}
	in := crossFileInputs(files, map[string][]types.Range{"/ws/e.go": {}})
	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	assert.NotContains(t, res.GlobalChanges, "/ws/e.go")
	assert.Empty(t, res.Skipped)
}

func TestRename_TooManyFiles(t *testing.T) {
	files := map[string]string{}
	indexed := map[string][]types.Range{}
	for i := 0; i < 3; i++ {
		path := fmt.Sprintf("/ws/f%d.go", i)
		files[path] = "foo\n"
		indexed[path] = []types.Range{span(0, 3)}
	}

	in := crossFileInputs(files, indexed)
	in.Options.LimitFiles = 2
	res, err := Rename(context.Background(), in)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrTooManyFiles)

	var tooMany *types.TooManyFilesError
	require.True(t, errors.As(err, &tooMany))
	assert.Equal(t, 3, tooMany.Count)
	assert.Equal(t, 2, tooMany.Limit)

	in.Options.LimitFiles = 3
	res, err = Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, res.GlobalChanges, 4)

	in.Options.LimitFiles = 0
	res, err = Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, res.GlobalChanges, 4)
}

func TestRename_CrossFileNotAllowed(t *testing.T) {
	files := map[string]string{"/ws/b.go": "foo\n"}
	in := crossFileInputs(files, map[string][]types.Range{
		mainPath:   {span(10, 13)},
		"/ws/b.go": {span(0, 3)},
	})
	in.Options.AllowCrossFile = false

	_, err := Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrCrossFileNotAllowed)

	// Only the main file reported: allowed.
	in.Index = &fakeIndex{occurrences: map[string][]types.Range{mainPath: {span(10, 13)}}}
	_, err = Rename(context.Background(), in)
	assert.NoError(t, err)
}

func TestRename_LinkedMethods(t *testing.T) {
	files := map[string]string{"/ws/b.go": "foo\n"}
	indexed := map[string][]types.Range{
		mainPath:   {span(10, 13), span(40, 43)},
		"/ws/b.go": {span(0, 3)},
	}

	in := crossFileInputs(files, indexed)
	sym := in.Resolver.(*fakeResolver).sym
	sym.Kind = types.KindMethod
	sym.Key = "example.com/m.T.foo"
	sym.Related = []string{"example.com/m.I.foo"}

	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/b.go", mainPath}, res.GlobalChanges.Paths())

	in.Options.RenameVirtual = false
	_, err = Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrNotRenamable)

	// Prepare is refused too
	in.NewName = nil
	_, err = Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrNotRenamable)
}

func TestRename_LogsScanErrors(t *testing.T) {
	files := map[string]string{"/ws/b.go": "foo()\nx := \"unterminated\n"}
	in := crossFileInputs(files, map[string][]types.Range{"/ws/b.go": {span(0, 3)}})

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	in.Logger = log

	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	require.Contains(t, res.GlobalChanges, "/ws/b.go")

	var found bool
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "File has scan errors") {
			found = true
			assert.Equal(t, "/ws/b.go", e.Data["path"])
		}
	}
	assert.True(t, found)
}

func TestRename_LocalSymbolSkipsIndex(t *testing.T) {
	in := crossFileInputs(nil, nil)
	in.Index = &fakeIndex{err: errors.New("index must not be queried")}
	in.Resolver.(*fakeResolver).sym.Local = true

	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, res.GlobalChanges, 1)
}

func TestRename_IndexFailureIsFatal(t *testing.T) {
	in := crossFileInputs(nil, nil)
	in.Index = &fakeIndex{err: errors.New("database is locked")}
	_, err := Rename(context.Background(), in)
	assert.ErrorContains(t, err, "database is locked")
}

func TestRename_ReadsMainFileFromFS(t *testing.T) {
	in := crossFileInputs(map[string]string{mainPath: mainText}, map[string][]types.Range{})
	in.MainFileText = ""

	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, res.LocalChanges.Replacements, 2)

	in = crossFileInputs(nil, map[string][]types.Range{})
	in.MainFileText = ""
	_, err = Rename(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrFileUnreadable)
}

func TestRename_Canceled(t *testing.T) {
	files := map[string]string{"/ws/b.go": "foo\n"}
	in := crossFileInputs(files, map[string][]types.Range{"/ws/b.go": {span(0, 3)}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rename(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRename_Format(t *testing.T) {
	files := map[string]string{"/ws/b.go": "foo\n"}
	in := crossFileInputs(files, map[string][]types.Range{"/ws/b.go": {span(0, 3)}})
	in.Options.WantFormat = true
	formatter := &fakeFormatter{}
	in.Formatter = formatter

	res, err := Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, formatter.calls)
	assert.Equal(t, "bar_fmt", res.GlobalChanges["/ws/b.go"].Replacements[0].NewText)
	assert.Equal(t, "bar_fmt", res.LocalChanges.Replacements[0].NewText)

	in.Formatter = &fakeFormatter{err: errors.New("syntax error")}
	res, err = Rename(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "bar", res.GlobalChanges["/ws/b.go"].Replacements[0].NewText)
}
