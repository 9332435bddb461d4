package exportscan

import (
	"github.com/715d/exportlist/internal/analysis"
	"github.com/715d/exportlist/pkg/exports"
)

// ModuleExports is the resolved public interface of one Python file.
type ModuleExports struct {
	File   string `json:"file"`
	Module string `json:"module"`

	// HasExportList is true when the file declares __all__.
	HasExportList bool `json:"has_export_list"`

	// Exported holds the public symbols in declaration order.
	Exported []exports.Symbol `json:"exported"`

	// Missing holds __all__ names that match no declaration.
	Missing []string `json:"missing,omitempty"`

	// Symbols holds the verdict for every top-level symbol.
	Symbols []analysis.SymbolInfo `json:"symbols"`
}
