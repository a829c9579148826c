package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/packages"

	"github.com/dshills/gorename-mcp/internal/lexer"
	"github.com/dshills/gorename-mcp/internal/logging"
	symtypes "github.com/dshills/gorename-mcp/pkg/types"
)

// LoadMode is the go/packages mode needed to resolve identifiers.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesInfo |
	packages.NeedSyntax | packages.NeedModule

// Config contains configuration for the resolver
type Config struct {
	// Root is the workspace directory. Symbols declared outside it cannot
	// be renamed. When empty, the module directory of the loaded package
	// is used.
	Root string

	// IncludeTests loads test variants so _test.go files resolve.
	IncludeTests bool

	// CacheSize is the number of type-checked files kept (default: 8).
	CacheSize int

	Logger logrus.FieldLogger
}

// Resolver type-checks the package of a file, with the caller's unsaved
// text overlaid, and answers questions about the identifier at a position.
type Resolver struct {
	root  string
	tests bool
	cache *lru.Cache[string, *loaded]
	log   logrus.FieldLogger
}

// New creates a new Resolver instance
func New(cfg Config) (*Resolver, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 8
	}
	cache, err := lru.New[string, *loaded](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	root := cfg.Root
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return nil, err
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Resolver{root: root, tests: cfg.IncludeTests, cache: cache, log: log}, nil
}

// loaded is one type-checked view of a file.
type loaded struct {
	pkg   *packages.Package
	file  *ast.File
	tf    *token.File
	lines *lexer.LineIndex
	keys  *Keys
	root  string

	// switches maps the symbolic variable of a type switch to the
	// per-clause objects go/types declares for it.
	switches map[*ast.Ident][]types.Object
	implicit map[types.Object]*ast.Ident
}

// Resolve returns the symbol spelled by the identifier at pos.
func (r *Resolver) Resolve(ctx context.Context, path, text string, pos symtypes.Position) (*symtypes.Symbol, error) {
	l, err := r.load(ctx, path, text)
	if err != nil {
		return nil, err
	}

	id := l.identAt(pos.Offset)
	if id == nil {
		return nil, fmt.Errorf("%w: no identifier at %s", symtypes.ErrSymbolNotFound, pos)
	}
	obj := l.objectOf(id)
	if obj == nil {
		return nil, fmt.Errorf("%w: %s at %s", symtypes.ErrSymbolNotFound, id.Name, pos)
	}
	if err := l.checkRenamable(obj); err != nil {
		return nil, err
	}

	sym := &symtypes.Symbol{
		Name:    symtypes.NewSymbolName(obj.Name()),
		Kind:    KindOf(obj),
		Package: obj.Pkg().Path(),
		Range:   l.rangeOf(id),
	}
	if key, ok := l.keys.Key(obj); ok {
		sym.Key = key
	} else {
		decl := l.pkg.Fset.Position(obj.Pos())
		sym.Key = fmt.Sprintf("%s@%s:%d", sym.Name, decl.Filename, decl.Offset)
		sym.Local = true
	}
	if fn, ok := obj.(*types.Func); ok && !sym.Local && sym.Kind == symtypes.KindMethod {
		related, err := l.relatedKeys(fn.Origin())
		if err != nil {
			return nil, err
		}
		sym.Related = related
	}

	r.log.WithFields(logrus.Fields{
		"symbol":  sym.Key,
		"kind":    sym.Kind,
		"local":   sym.Local,
		"related": len(sym.Related),
	}).Debug("Resolved symbol")

	return sym, nil
}

// OccurrencesInFile returns every range in path that spells sym. The
// symbol is looked up again at sym.Range, so text should be the text sym
// was resolved against.
func (r *Resolver) OccurrencesInFile(ctx context.Context, sym *symtypes.Symbol, path, text string) ([]symtypes.Range, error) {
	l, err := r.load(ctx, path, text)
	if err != nil {
		return nil, err
	}

	id := l.identAt(sym.Range.Begin.Offset)
	if id == nil {
		return nil, fmt.Errorf("%w: no identifier at %s", symtypes.ErrSymbolNotFound, sym.Range)
	}
	target := l.objectOf(id)
	if target == nil {
		return nil, fmt.Errorf("%w: %s at %s", symtypes.ErrSymbolNotFound, id.Name, sym.Range)
	}

	var match func(types.Object) bool
	if sym.Local {
		group := map[types.Object]bool{target: true}
		if sid, ok := l.implicit[target]; ok {
			for _, o := range l.switches[sid] {
				group[o] = true
			}
		}
		match = func(o types.Object) bool { return group[o] }
	} else {
		keys := make(map[string]bool, 1+len(sym.Related))
		for _, k := range sym.Keys() {
			keys[k] = true
		}
		match = func(o types.Object) bool {
			key, ok := l.keys.Key(o)
			return ok && keys[key]
		}
	}

	var out []symtypes.Range
	ast.Inspect(l.file, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		def, use := l.pkg.TypesInfo.Defs[id], l.pkg.TypesInfo.Uses[id]
		switch {
		case def != nil && match(def), use != nil && match(use):
			out = append(out, l.rangeOf(id))
		case def == nil && use == nil:
			if objs := l.switches[id]; len(objs) > 0 && match(objs[0]) {
				out = append(out, l.rangeOf(id))
			}
		}
		return true
	})
	symtypes.SortRanges(out)
	return out, nil
}

func (r *Resolver) load(ctx context.Context, path, text string) (*loaded, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(text))
	cacheKey := abs + "@" + hex.EncodeToString(sum[:])
	if l, ok := r.cache.Get(cacheKey); ok {
		return l, nil
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     filepath.Dir(abs),
		Tests:   r.tests,
		Overlay: map[string][]byte{abs: []byte(text)},
	}
	pkgs, err := packages.Load(cfg, "file="+abs)
	if err != nil {
		return nil, fmt.Errorf("failed to load package of %s: %w", path, err)
	}

	// Prefer the variant with the most files so test files see their
	// package's test-only declarations.
	var best *loaded
	for _, pkg := range pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		for _, f := range pkg.Syntax {
			tf := pkg.Fset.File(f.FileStart)
			if tf == nil || !sameFile(tf.Name(), abs) {
				continue
			}
			if best == nil || len(pkg.Syntax) > len(best.pkg.Syntax) {
				best = &loaded{pkg: pkg, file: f, tf: tf}
			}
		}
		for _, e := range pkg.Errors {
			r.log.WithFields(logrus.Fields{
				"package": pkg.ID,
				"error":   e.Error(),
			}).Debug("Package has errors")
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s is not part of any package", symtypes.ErrSymbolNotFound, path)
	}

	best.lines = lexer.NewLineIndex(text)
	best.keys = NewKeys()
	best.root = r.root
	if best.root == "" && best.pkg.Module != nil {
		best.root = best.pkg.Module.Dir
	}
	best.indexTypeSwitches()

	r.cache.Add(cacheKey, best)
	return best, nil
}

func (l *loaded) indexTypeSwitches() {
	l.switches = make(map[*ast.Ident][]types.Object)
	l.implicit = make(map[types.Object]*ast.Ident)
	ast.Inspect(l.file, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSwitchStmt)
		if !ok {
			return true
		}
		assign, ok := ts.Assign.(*ast.AssignStmt)
		if !ok || len(assign.Lhs) != 1 {
			return true
		}
		sid, ok := assign.Lhs[0].(*ast.Ident)
		if !ok {
			return true
		}
		for _, stmt := range ts.Body.List {
			if obj := l.pkg.TypesInfo.Implicits[stmt]; obj != nil {
				l.switches[sid] = append(l.switches[sid], obj)
				l.implicit[obj] = sid
			}
		}
		return true
	})
}

// identAt returns the identifier containing offset, or ending at it.
func (l *loaded) identAt(offset int) *ast.Ident {
	for _, off := range []int{offset, offset - 1} {
		if off < 0 || off > l.tf.Size() {
			continue
		}
		p := l.tf.Pos(off)
		path, _ := astutil.PathEnclosingInterval(l.file, p, p)
		if len(path) == 0 {
			continue
		}
		if id, ok := path[0].(*ast.Ident); ok && id.Pos() <= p && p <= id.End() {
			return id
		}
	}
	return nil
}

func (l *loaded) objectOf(id *ast.Ident) types.Object {
	if obj := l.pkg.TypesInfo.ObjectOf(id); obj != nil {
		return obj
	}
	if objs := l.switches[id]; len(objs) > 0 {
		return objs[0]
	}
	return nil
}

func (l *loaded) rangeOf(id *ast.Ident) symtypes.Range {
	begin := l.tf.Offset(id.Pos())
	return l.lines.Range(begin, begin+len(id.Name))
}

func (l *loaded) checkRenamable(obj types.Object) error {
	if obj.Pkg() == nil || obj.Pkg().Path() == "unsafe" {
		// e.g. error.Error, unsafe.Pointer
		return fmt.Errorf("%w: %s is built in", symtypes.ErrNotRenamable, obj.Name())
	}
	switch obj := obj.(type) {
	case *types.Var:
		if obj.Embedded() {
			return fmt.Errorf("%w: %s is an embedded field, rename the type instead", symtypes.ErrNotRenamable, obj.Name())
		}
	case *types.Builtin, *types.Nil:
		return fmt.Errorf("%w: %s is built in", symtypes.ErrNotRenamable, obj.Name())
	case *types.PkgName:
		return fmt.Errorf("%w: %s is a package name", symtypes.ErrNotRenamable, obj.Name())
	case *types.Func:
		if obj.Parent() == obj.Pkg().Scope() && (obj.Name() == "init" ||
			(obj.Name() == "main" && obj.Pkg().Name() == "main")) {
			return fmt.Errorf("%w: %s is a program entry point", symtypes.ErrNotRenamable, obj.Name())
		}
	}
	if obj.Name() == "_" {
		return fmt.Errorf("%w: can't rename \"_\"", symtypes.ErrNotRenamable)
	}
	if l.root != "" && obj.Pos().IsValid() {
		decl := l.pkg.Fset.Position(obj.Pos()).Filename
		if decl != "" && !Within(l.root, decl) {
			return fmt.Errorf("%w: %s is declared outside the workspace in %s", symtypes.ErrNotRenamable, obj.Name(), decl)
		}
	}
	return nil
}

// Within reports whether path is inside dir.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// sameFile reports whether paths refer to the same file.
func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 == nil && err2 == nil {
		return filepath.Clean(aa) == filepath.Clean(bb)
	}
	return a == b
}
