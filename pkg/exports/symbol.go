// Package exports resolves which top-level symbols a module exposes publicly.
package exports

import (
	"slices"
	"strings"
)

// Kind is the declaration kind of a top-level symbol.
type Kind int

const (
	KindClass Kind = iota
	KindFunction
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind appear by name in JSON and yaml output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Symbol is a named top-level declaration.
type Symbol struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Line is the 1-based declaration line, or 0 when unknown.
	Line int `json:"line,omitempty"`
}

// IsPrivateByConvention reports whether the name carries a leading underscore
// and is not a dunder name such as __version__.
func (s Symbol) IsPrivateByConvention() bool {
	return strings.HasPrefix(s.Name, "_") && !isDunder(s.Name)
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// ExportList distinguishes an explicitly declared allow-list from its absence.
// The zero value is absent.
type ExportList struct {
	declared bool
	names    []string
}

// NoExportList returns the absent export list.
func NoExportList() ExportList {
	return ExportList{}
}

// DeclaredExportList returns a declared export list holding names in order.
// Called with no names it yields a declared but empty list.
func DeclaredExportList(names ...string) ExportList {
	return ExportList{declared: true, names: slices.Clone(names)}
}

// Declared reports whether the module declares an export list at all.
func (l ExportList) Declared() bool {
	return l.declared
}

// Names returns a copy of the declared names in declaration order.
func (l ExportList) Names() []string {
	return slices.Clone(l.names)
}

// Contains reports whether name appears in the list.
func (l ExportList) Contains(name string) bool {
	return slices.Contains(l.names, name)
}

// Append returns a declared list extended with names.
func (l ExportList) Append(names ...string) ExportList {
	out := make([]string, 0, len(l.names)+len(names))
	out = append(out, l.names...)
	out = append(out, names...)
	return ExportList{declared: true, names: out}
}

// Module is the set of top-level symbols of one source file, in declaration
// order, plus its optional export list.
type Module struct {
	Symbols []Symbol
	Exports ExportList
}
