package rename

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/internal/logging"
	"github.com/dshills/gorename-mcp/internal/reconcile"
	"github.com/dshills/gorename-mcp/pkg/types"
)

// Inputs describes one rename request.
type Inputs struct {
	// Pos is the cursor. Line and Column (0-based, UTF-16) are
	// authoritative; Offset is recomputed from the main file text.
	Pos types.Position

	// NewName is the name to rename to, or nil to only check that the
	// symbol under the cursor can be renamed.
	NewName *string

	MainFilePath string

	// MainFileText is the live text of the main file. When empty and FS
	// is set, the main file is read through FS.
	MainFileText string

	Resolver Resolver

	// Index and FS enable cross-file renames. Both must be set, or
	// neither.
	Index SymbolIndex
	FS    FileSystem

	// Formatter is used when Options.WantFormat is set.
	Formatter Formatter

	Options Options
	Logger  logrus.FieldLogger
}

func (in *Inputs) validate() error {
	if in.Resolver == nil {
		return fmt.Errorf("%w: resolver is required", types.ErrInvalidInput)
	}
	if in.MainFilePath == "" {
		return fmt.Errorf("%w: main file path is required", types.ErrInvalidInput)
	}
	if (in.Index == nil) != (in.FS == nil) {
		return fmt.Errorf("%w: index and file system must be set together", types.ErrInvalidInput)
	}
	if in.Pos.Line < 0 || in.Pos.Column < 0 {
		return fmt.Errorf("%w: position %d:%d", types.ErrInvalidInput, in.Pos.Line, in.Pos.Column)
	}
	return nil
}

type fileOutcome struct {
	path  string
	edit  types.Edit
	drops []Drop
	skip  error
}

type renamer struct {
	in      Inputs
	opts    Options
	log     logrus.FieldLogger
	sym     *types.Symbol
	newName types.SymbolName
}

// Rename renames every occurrence of the symbol at in.Pos.
//
// Main-file occurrences come from the resolver and are trusted as-is.
// Occurrences in other files come from the index and are reconciled
// against each file's current text; files that cannot be reconciled are
// left out of GlobalChanges and listed in Skipped. Edits are unformatted
// unless Options.WantFormat is set and a Formatter is provided.
func Rename(ctx context.Context, in Inputs) (*types.RenameResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	r := &renamer{in: in, opts: in.Options.withDefaults(), log: in.Logger}
	if r.log == nil {
		r.log = logging.Discard()
	}
	r.log = r.log.WithField("file", in.MainFilePath)

	mainText := in.MainFileText
	if mainText == "" && in.FS != nil {
		text, err := in.FS.ReadFile(ctx, in.MainFilePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrFileUnreadable, in.MainFilePath, err)
		}
		mainText = text
	}

	lines := lexer.NewLineIndex(mainText)
	offset, ok := lines.Offset(in.Pos.Line, in.Pos.Column)
	if !ok {
		return nil, fmt.Errorf("%w: position %s outside %s", types.ErrInvalidInput, in.Pos, in.MainFilePath)
	}

	sym, err := in.Resolver.Resolve(ctx, in.MainFilePath, mainText, lines.Position(offset))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve symbol: %w", err)
	}
	r.sym = sym

	if sym.Virtual() && !r.opts.RenameVirtual {
		return nil, fmt.Errorf("%w: %s is linked to %d other methods by interface satisfaction",
			types.ErrNotRenamable, sym.Name, len(sym.Related))
	}

	result := &types.RenameResult{Target: sym.Range, OldName: sym.Name}
	if in.NewName == nil {
		return result, nil
	}

	newName := types.ParseSymbolName(*in.NewName)
	if !sym.Name.SamePieceCount(newName) {
		return nil, fmt.Errorf("%w: %s to %s", types.ErrPieceCountMismatch, sym.Name, newName)
	}
	if err := newName.Validate(); err != nil {
		return nil, err
	}
	if newName.Equal(sym.Name) {
		return nil, fmt.Errorf("%w: %s", types.ErrSameName, newName)
	}
	r.newName = newName

	local, err := in.Resolver.OccurrencesInFile(ctx, sym, in.MainFilePath, mainText)
	if err != nil {
		return nil, fmt.Errorf("failed to find occurrences in main file: %w", err)
	}
	local = types.UniqueRanges(local)

	localEdit, drops, err := BuildEdit(in.MainFilePath, mainText, local, sym.Name, newName, lexer.Tokenize(mainText))
	if err != nil {
		return nil, err
	}
	r.logDrops(in.MainFilePath, drops)

	result.LocalChanges = localEdit
	result.GlobalChanges = types.FileEdits{in.MainFilePath: localEdit}

	if in.Index == nil || sym.Local {
		r.format(result)
		return result, nil
	}

	byFile, err := in.Index.OccurrencesAcrossFiles(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	var others []string
	for path := range byFile {
		if path != in.MainFilePath {
			others = append(others, path)
		}
	}
	sort.Strings(others)

	if !r.opts.AllowCrossFile && len(others) > 0 {
		return nil, fmt.Errorf("%w: %s is used in %d other files", types.ErrCrossFileNotAllowed, sym.Name, len(others))
	}
	if r.opts.LimitFiles > 0 && len(byFile) > r.opts.LimitFiles {
		return nil, &types.TooManyFilesError{Count: len(byFile), Limit: r.opts.LimitFiles}
	}

	outcomes, err := r.renameFiles(ctx, others, byFile)
	if err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if o.skip != nil {
			r.log.WithFields(logrus.Fields{
				"path":   o.path,
				"reason": o.skip.Error(),
			}).Debug("Skipping file")
			result.Skipped = append(result.Skipped, types.FileSkip{Path: o.path, Reason: o.skip})
			continue
		}
		r.logDrops(o.path, o.drops)
		if !o.edit.Empty() {
			result.GlobalChanges[o.path] = o.edit
		}
	}

	r.format(result)

	r.log.WithFields(logrus.Fields{
		"symbol":       sym.Key,
		"files":        len(result.GlobalChanges),
		"replacements": result.GlobalChanges.ReplacementCount(),
		"skipped":      len(result.Skipped),
	}).Info("Rename computed")

	return result, nil
}

// renameFiles reconciles and edits every file concurrently. Each worker
// writes only its own slot; per-file failures become skips and only
// cancellation fails the group.
func (r *renamer) renameFiles(ctx context.Context, paths []string, byFile map[string][]types.Range) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(paths))
	semaphore := make(chan struct{}, r.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.renameFile(gctx, path, byFile[path])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *renamer) renameFile(ctx context.Context, path string, indexed []types.Range) fileOutcome {
	out := fileOutcome{path: path}

	text, err := r.in.FS.ReadFile(ctx, path)
	if err != nil {
		out.skip = fmt.Errorf("%w: %w", types.ErrFileUnreadable, err)
		return out
	}

	toks := lexer.Tokenize(text)
	if n := toks.ErrorCount(); n > 0 {
		r.log.WithFields(logrus.Fields{
			"path":   path,
			"errors": n,
		}).Debug("File has scan errors, reconciling recovered tokens")
	}
	policy := reconcile.Policy{MaxCostPerOccurrence: r.opts.MaxCostPerOccurrence}

	adjusted, err := reconcile.Reconcile(toks, r.sym.Name.First(), types.UniqueRanges(indexed), policy)
	if err != nil {
		out.skip = err
		return out
	}

	edit, drops, err := BuildEdit(path, text, adjusted, r.sym.Name, r.newName, toks)
	if err != nil {
		out.skip = err
		return out
	}
	out.edit = edit
	out.drops = drops
	return out
}

func (r *renamer) format(result *types.RenameResult) {
	if !r.opts.WantFormat || r.in.Formatter == nil {
		return
	}
	for _, path := range result.GlobalChanges.Paths() {
		formatted, err := r.in.Formatter.Format(path, result.GlobalChanges[path])
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"path":  path,
				"error": err.Error(),
			}).Warn("Failed to format edit, keeping unformatted")
			continue
		}
		result.GlobalChanges[path] = formatted
	}
	result.LocalChanges = result.GlobalChanges[r.in.MainFilePath]
}

func (r *renamer) logDrops(path string, drops []Drop) {
	for _, d := range drops {
		entry := r.log.WithFields(logrus.Fields{
			"path":   path,
			"range":  d.Range.String(),
			"reason": d.Reason.Error(),
		})
		if errors.Is(d.Reason, types.ErrPieceNotFound) {
			entry.Debug("Selector piece not found, dropping occurrence")
			continue
		}
		entry.Debug("Dropping occurrence")
	}
}
