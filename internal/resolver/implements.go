package resolver

import (
	"fmt"
	"go/types"
	"sort"

	symtypes "github.com/dshills/gorename-mcp/pkg/types"
)

// methodFamily returns m together with every method linked to it through
// interface satisfaction: interface methods that a type declaring m
// satisfies, and concrete methods that satisfy an interface declaring m,
// closed transitively. Types are drawn from the package of the loaded
// file and everything it imports, so interfaces declared in packages that
// import this one are not seen.
func (l *loaded) methodFamily(m *types.Func) []*types.Func {
	ifaces, concretes := l.namedTypes()

	seen := map[*types.Func]bool{m: true}
	family := []*types.Func{m}
	add := func(f *types.Func) {
		if f != nil && !seen[f] {
			seen[f] = true
			family = append(family, f)
		}
	}

	for i := 0; i < len(family); i++ {
		f := family[i]
		recv := receiverOf(f)
		if recv == nil {
			continue
		}

		if iface, ok := recv.Underlying().(*types.Interface); ok {
			for _, c := range concretes {
				if satisfies(c, iface) {
					add(lookupMethod(c, f))
				}
			}
			continue
		}

		// Every concrete type whose method set holds f, including types
		// that get it by embedding.
		for _, c := range concretes {
			if lookupMethod(c, f) != f {
				continue
			}
			for _, in := range ifaces {
				iface := in.Underlying().(*types.Interface)
				im := lookupMethod(in, f)
				if im != nil && satisfies(c, iface) {
					add(im)
				}
			}
		}
	}
	return family
}

// relatedKeys returns the sorted keys of m's method family, m excluded.
// A family member declared outside the workspace makes m unrenamable.
func (l *loaded) relatedKeys(m *types.Func) ([]string, error) {
	own, _ := l.keys.Key(m)

	set := make(map[string]bool)
	for _, f := range l.methodFamily(m)[1:] {
		if !l.inWorkspace(f) {
			return nil, fmt.Errorf("%w: %s is linked to %s declared outside the workspace",
				symtypes.ErrNotRenamable, m.Name(), f.FullName())
		}
		if key, ok := l.keys.Key(f); ok && key != own {
			set[key] = true
		}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// namedTypes collects the non-generic named types of the loaded package
// and its transitive imports. Interfaces without methods are left out;
// concrete types are limited to the workspace.
func (l *loaded) namedTypes() (ifaces, concretes []*types.Named) {
	visited := make(map[*types.Package]bool)
	var visit func(p *types.Package)
	visit = func(p *types.Package) {
		if p == nil || visited[p] {
			return
		}
		visited[p] = true

		scope := p.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			named, ok := tn.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 {
				continue
			}
			if iface, ok := named.Underlying().(*types.Interface); ok {
				if iface.NumMethods() > 0 {
					ifaces = append(ifaces, named)
				}
				continue
			}
			if l.inWorkspace(tn) {
				concretes = append(concretes, named)
			}
		}
		for _, imp := range p.Imports() {
			visit(imp)
		}
	}
	visit(l.pkg.Types)
	return ifaces, concretes
}

// inWorkspace reports whether obj is declared under the workspace root.
func (l *loaded) inWorkspace(obj types.Object) bool {
	if l.root == "" {
		return obj.Pkg() != nil
	}
	if !obj.Pos().IsValid() {
		return false
	}
	return Within(l.root, l.pkg.Fset.Position(obj.Pos()).Filename)
}

// receiverOf returns the named receiver type of a method.
func receiverOf(f *types.Func) *types.Named {
	sig, ok := f.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}
	return namedOf(sig.Recv().Type())
}

// lookupMethod returns the method of t, or of *t, named like f.
func lookupMethod(t *types.Named, f *types.Func) *types.Func {
	var mset *types.MethodSet
	if types.IsInterface(t) {
		mset = types.NewMethodSet(t)
	} else {
		mset = types.NewMethodSet(types.NewPointer(t))
	}
	sel := mset.Lookup(f.Pkg(), f.Name())
	if sel == nil {
		return nil
	}
	fn, _ := sel.Obj().(*types.Func)
	return fn
}

// satisfies reports whether t or *t implements iface.
func satisfies(t *types.Named, iface *types.Interface) bool {
	return types.Implements(t, iface) || types.Implements(types.NewPointer(t), iface)
}
