package resolver

import (
	"go/types"
	"sync"

	symtypes "github.com/dshills/gorename-mcp/pkg/types"
)

// Keys derives index keys for type-checked objects.
//
// A key names an object by where it is declared rather than by identity,
// so the same declaration seen through different loads (or through a
// package's test variant) yields the same key:
//
//	pkgpath.Name         package-level func, type, var or const
//	pkgpath.Recv.Name    method of a named type, or interface method
//	pkgpath.Type.Field   field of a package-level struct type
//	pkgpath.Type.A.B     field B of the anonymous struct in field A
//
// Objects without a key (locals, labels, fields of unnamed types) are
// only visible inside their file and are renamed from the main file alone.
//
// Keys is safe for concurrent use.
type Keys struct {
	mu     sync.Mutex
	fields map[*types.Package]map[*types.Var]string
}

// NewKeys creates an empty key cache.
func NewKeys() *Keys {
	return &Keys{fields: make(map[*types.Package]map[*types.Var]string)}
}

// Key returns the index key of obj, or false if obj has none.
func (k *Keys) Key(obj types.Object) (string, bool) {
	pkg := obj.Pkg()
	if pkg == nil || obj.Name() == "_" {
		return "", false
	}
	if _, ok := obj.(*types.PkgName); ok {
		return "", false
	}

	if obj.Parent() == pkg.Scope() {
		return pkg.Path() + "." + obj.Name(), true
	}

	switch obj := obj.(type) {
	case *types.Func:
		sig, ok := obj.Type().(*types.Signature)
		if !ok || sig.Recv() == nil {
			return "", false
		}
		named := namedOf(sig.Recv().Type())
		if named == nil || named.Obj().Parent() != pkg.Scope() {
			return "", false
		}
		return pkg.Path() + "." + named.Obj().Name() + "." + obj.Name(), true
	case *types.Var:
		if !obj.IsField() {
			return "", false
		}
		key, ok := k.fieldsOf(pkg)[obj.Origin()]
		return key, ok
	}
	return "", false
}

func (k *Keys) fieldsOf(pkg *types.Package) map[*types.Var]string {
	k.mu.Lock()
	defer k.mu.Unlock()

	if m, ok := k.fields[pkg]; ok {
		return m
	}
	m := make(map[*types.Var]string)
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok {
			continue
		}
		collectFields(m, pkg.Path()+"."+name, tn.Type().Underlying())
	}
	k.fields[pkg] = m
	return m
}

func collectFields(m map[*types.Var]string, prefix string, t types.Type) {
	st, ok := t.(*types.Struct)
	if !ok {
		return
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		key := prefix + "." + f.Name()
		if _, seen := m[f]; seen {
			continue
		}
		m[f] = key
		collectFields(m, key, f.Type())
	}
}

func namedOf(t types.Type) *types.Named {
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		t = p.Elem()
	}
	named, _ := types.Unalias(t).(*types.Named)
	if named == nil {
		return nil
	}
	// Methods of instantiated types are keyed by their generic origin.
	return named.Origin()
}

// KindOf classifies obj.
func KindOf(obj types.Object) symtypes.SymbolKind {
	switch obj := obj.(type) {
	case *types.Func:
		if sig, ok := obj.Type().(*types.Signature); ok && sig.Recv() != nil {
			return symtypes.KindMethod
		}
		return symtypes.KindFunction
	case *types.TypeName:
		switch obj.Type().Underlying().(type) {
		case *types.Struct:
			return symtypes.KindStruct
		case *types.Interface:
			return symtypes.KindInterface
		}
		return symtypes.KindType
	case *types.Const:
		return symtypes.KindConst
	case *types.Var:
		if obj.IsField() {
			return symtypes.KindField
		}
		return symtypes.KindVar
	case *types.Label:
		return symtypes.KindLabel
	}
	return symtypes.KindLocal
}
