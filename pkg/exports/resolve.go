package exports

// Resolve returns the exported symbols of m in declaration order.
//
// A declared export list, even an empty one, is authoritative: exactly the
// symbols it names are exported, underscores notwithstanding. Without one,
// every symbol that is not private by convention is exported. Names in the
// list that match no symbol contribute nothing.
func Resolve(m Module) []Symbol {
	out := make([]Symbol, 0, len(m.Symbols))

	if m.Exports.Declared() {
		listed := make(map[string]struct{}, len(m.Exports.names))
		for _, name := range m.Exports.names {
			listed[name] = struct{}{}
		}
		for _, s := range m.Symbols {
			if _, ok := listed[s.Name]; ok {
				out = append(out, s)
			}
		}
		return out
	}

	for _, s := range m.Symbols {
		if !s.IsPrivateByConvention() {
			out = append(out, s)
		}
	}
	return out
}

// IsExported reports whether s would be part of Resolve(m).
func IsExported(m Module, s Symbol) bool {
	if m.Exports.Declared() {
		return m.Exports.Contains(s.Name)
	}
	return !s.IsPrivateByConvention()
}

// Missing returns the export-list names that match no symbol, deduplicated,
// in list order. It is empty when no list is declared.
func Missing(m Module) []string {
	if !m.Exports.Declared() {
		return nil
	}

	declared := make(map[string]struct{}, len(m.Symbols))
	for _, s := range m.Symbols {
		declared[s.Name] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, name := range m.Exports.names {
		if _, ok := declared[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	return missing
}
