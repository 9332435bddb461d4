package exportscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative slash paths) under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestLoadFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":                     "",
		"README.md":                  "",
		"pkg/__init__.py":            "",
		"pkg/mod.py":                 "",
		"pkg/__pycache__/mod.py":     "",
		"pkg/tests/test_mod.py":      "",
		".venv/lib/site.py":          "",
		"src/lib/util.py":            "",
		"node_modules/x/setup.py":    "",
		"notes/__pycache__/stale.py": "",
	})

	tests := []struct {
		name     string
		opts     LoaderOptions
		expected []string
		errIs    error
	}{
		{
			name:     "default walks everything",
			opts:     LoaderOptions{},
			expected: []string{"app.py", "pkg/__init__.py", "pkg/mod.py", "pkg/tests/test_mod.py", "src/lib/util.py"},
		},
		{
			name:     "directory pattern",
			opts:     LoaderOptions{Patterns: []string{"pkg"}},
			expected: []string{"pkg/__init__.py", "pkg/mod.py", "pkg/tests/test_mod.py"},
		},
		{
			name:     "recursive suffix pattern",
			opts:     LoaderOptions{Patterns: []string{"./src/..."}},
			expected: []string{"src/lib/util.py"},
		},
		{
			name:     "doublestar glob skips cache dirs",
			opts:     LoaderOptions{Patterns: []string{"**/*.py"}},
			expected: []string{"app.py", "pkg/__init__.py", "pkg/mod.py", "pkg/tests/test_mod.py", "src/lib/util.py"},
		},
		{
			name:     "single file",
			opts:     LoaderOptions{Patterns: []string{"pkg/mod.py"}},
			expected: []string{"pkg/mod.py"},
		},
		{
			name:     "overlapping patterns deduplicate",
			opts:     LoaderOptions{Patterns: []string{"pkg/mod.py", "pkg/*.py"}},
			expected: []string{"pkg/__init__.py", "pkg/mod.py"},
		},
		{
			name:     "exclude globs",
			opts:     LoaderOptions{Exclude: []string{"**/tests/**", "src/**"}},
			expected: []string{"app.py", "pkg/__init__.py", "pkg/mod.py"},
		},
		{
			name:  "no matches",
			opts:  LoaderOptions{Patterns: []string{"missing/*.py"}},
			errIs: ErrNoFiles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Dir = root
			files, err := LoadFiles(context.Background(), tt.opts)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)

			var rel []string
			for _, f := range files {
				r, err := filepath.Rel(root, f)
				require.NoError(t, err)
				rel = append(rel, filepath.ToSlash(r))
			}
			require.Equal(t, tt.expected, rel)
		})
	}
}

func TestLoadFiles_AbsolutePattern(t *testing.T) {
	root := writeTree(t, map[string]string{"a/one.py": "", "a/two.py": ""})

	files, err := LoadFiles(context.Background(), LoaderOptions{
		Patterns: []string{filepath.Join(root, "a")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "a", "one.py"), filepath.Join(root, "a", "two.py")}, files)
}

func TestLoadFiles_ParentPatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"cwd/local.py":          "",
		"proj/a.py":             "",
		"proj/sub/b.py":         "",
		"proj/__pycache__/c.py": "",
	})

	tests := []struct {
		name     string
		pattern  string
		expected []string
	}{
		{name: "sibling directory", pattern: "../proj", expected: []string{"proj/a.py", "proj/sub/b.py"}},
		{name: "sibling file", pattern: "../proj/a.py", expected: []string{"proj/a.py"}},
		{name: "sibling recursive suffix", pattern: "../proj/...", expected: []string{"proj/a.py", "proj/sub/b.py"}},
		{name: "sibling glob", pattern: "../proj/*/*.py", expected: []string{"proj/sub/b.py"}},
		{name: "parent directory", pattern: "..", expected: []string{"cwd/local.py", "proj/a.py", "proj/sub/b.py"}},
		{name: "climb and return", pattern: "../cwd/../proj/a.py", expected: []string{"proj/a.py"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := LoadFiles(context.Background(), LoaderOptions{
				Dir:      filepath.Join(root, "cwd"),
				Patterns: []string{tt.pattern},
			})
			require.NoError(t, err)

			var rel []string
			for _, f := range files {
				r, err := filepath.Rel(root, f)
				require.NoError(t, err)
				rel = append(rel, filepath.ToSlash(r))
			}
			require.Equal(t, tt.expected, rel)
		})
	}
}

func TestLoadFiles_InvalidExclude(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": ""})
	_, err := LoadFiles(context.Background(), LoaderOptions{Dir: root, Exclude: []string{"[unclosed"}})
	require.ErrorContains(t, err, "invalid exclude pattern")
}

func TestLoadFiles_Canceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadFiles(ctx, LoaderOptions{Dir: root})
	require.ErrorIs(t, err, context.Canceled)
}
