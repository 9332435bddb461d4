// Package analysis provides per-symbol export verdicts and module naming.
package analysis

import (
	"github.com/715d/exportlist/pkg/exports"
)

// Reason explains why a symbol is or is not exported.
type Reason string

const (
	ReasonListed        Reason = "listed in __all__"
	ReasonNotListed     Reason = "not listed in __all__"
	ReasonPublicByName  Reason = "public by convention"
	ReasonPrivateByName Reason = "private by convention"
)

// SymbolInfo represents the export verdict for one top-level symbol.
type SymbolInfo struct {
	exports.Symbol

	// Module is the dotted module name the symbol belongs to.
	Module string `json:"module"`

	// File is the source file declaring the symbol.
	File string `json:"file"`

	// IsExported is true when the symbol is part of the module's public interface.
	IsExported bool `json:"exported"`

	// Reason is why IsExported has its value.
	Reason Reason `json:"reason"`
}

// NewSymbolInfo computes the verdict for s within m.
func NewSymbolInfo(m exports.Module, s exports.Symbol, file, module string) SymbolInfo {
	si := SymbolInfo{
		Symbol:     s,
		Module:     module,
		File:       file,
		IsExported: exports.IsExported(m, s),
	}

	switch {
	case m.Exports.Declared() && si.IsExported:
		si.Reason = ReasonListed
	case m.Exports.Declared():
		si.Reason = ReasonNotListed
	case si.IsExported:
		si.Reason = ReasonPublicByName
	default:
		si.Reason = ReasonPrivateByName
	}
	return si
}

// QualifiedName returns module.name, or just the name when the module is unknown.
func (si SymbolInfo) QualifiedName() string {
	if si.Module == "" {
		return si.Name
	}
	return si.Module + "." + si.Name
}
