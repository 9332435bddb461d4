package analysis

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// ModuleNameCache caches the dotted module name computed for each file path.
// It is safe for concurrent use.
type ModuleNameCache struct {
	cache *xsync.Map[string, string]
}

func NewModuleNameCache() *ModuleNameCache {
	return &ModuleNameCache{
		cache: xsync.NewMap[string, string](),
	}
}

// ModuleName returns the importable dotted name for a Python file path.
// Everything after the innermost "src" (else "lib") segment forms the name (e.g.
// "project/src/pkg/mod.py" is "pkg.mod"); a package's __init__.py names the
// package itself. Otherwise the parent directory and file name are used.
func (c *ModuleNameCache) ModuleName(path string) string {
	if path == "" {
		return ""
	}
	name, _ := c.cache.LoadOrCompute(path, func() (string, bool) {
		return computeModuleName(path), false
	})
	return name
}

func computeModuleName(path string) string {
	p := filepath.ToSlash(path)
	p = strings.TrimSuffix(p, ".py")
	p = strings.TrimPrefix(p, "./")

	parts := slices.DeleteFunc(strings.Split(p, "/"), func(s string) bool {
		return s == "" || s == "."
	})
	if len(parts) == 0 {
		return ""
	}

	// Anchor on the innermost src directory, falling back to lib.
	start := -1
	if idx := lastIndex(parts, "src"); idx >= 0 {
		start = idx + 1
	} else if idx := lastIndex(parts, "lib"); idx >= 0 {
		start = idx + 1
	}

	if start > 0 && start < len(parts) {
		rest := parts[start:]
		if rest[len(rest)-1] == "__init__" {
			rest = rest[:len(rest)-1]
		}
		return strings.Join(rest, ".")
	}

	if idx := slices.Index(parts, "__init__"); idx >= 0 {
		return strings.Join(parts[:idx], ".")
	}

	file := parts[len(parts)-1]
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "." + file
	}
	return file
}

func lastIndex(parts []string, seg string) int {
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == seg {
			return i
		}
	}
	return -1
}
