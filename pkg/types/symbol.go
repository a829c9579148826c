package types

import (
	"errors"
	"go/token"
)

// SymbolKind represents the type of Go language symbol
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindVar       SymbolKind = "var"
	KindField     SymbolKind = "field"
	KindLocal     SymbolKind = "local"
	KindLabel     SymbolKind = "label"
)

// Symbol is the resolved target of a rename request.
type Symbol struct {
	// Key joins the symbol with the index. Package-level objects use
	// "pkgpath.Name", methods and fields "pkgpath.Recv.Name".
	Key string

	Name SymbolName
	Kind SymbolKind

	// Package is the import path of the declaring package.
	Package string

	// Range is the occurrence under the cursor in the main file.
	Range Range

	// Local symbols are only visible in their declaring file, so the
	// index is never consulted for them.
	Local bool

	// Related holds the keys of methods that must be renamed together
	// with this one because a type satisfies an interface through them.
	// Sorted, Key excluded.
	Related []string
}

// Keys returns Key followed by the related keys.
func (s *Symbol) Keys() []string {
	keys := make([]string, 0, 1+len(s.Related))
	keys = append(keys, s.Key)
	return append(keys, s.Related...)
}

// Virtual reports whether the symbol is a method linked to others
// through interface satisfaction.
func (s *Symbol) Virtual() bool {
	return len(s.Related) > 0
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindMethod, KindStruct, KindInterface, KindType,
		KindConst, KindVar, KindField, KindLocal, KindLabel:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// IsExported returns true if the symbol is visible outside its package
func (s *Symbol) IsExported() bool {
	return token.IsExported(s.Name.First())
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.Key == "" {
		return errors.New("symbol key is required")
	}

	if err := s.Name.Validate(); err != nil {
		return err
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	return s.Range.Validate()
}
