package harness

import (
	"os"
	"path/filepath"
	"testing"

	yaml "gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"

	"github.com/715d/exportlist/pkg/exportscan"
)

// LoadFiles expands a run's patterns inside dir.
func LoadFiles(t *testing.T, dir string, run RunConfig) ([]string, error) {
	t.Helper()

	t.Logf("Loading files from %q", dir)
	return exportscan.LoadFiles(t.Context(), exportscan.LoaderOptions{
		Patterns: run.Patterns,
		Dir:      dir,
		Exclude:  run.Exclude,
	})
}

// LoadTestCase loads a test case from a directory with a specified testdata root.
func LoadTestCase(t *testing.T, dir, root string) *TestCase {
	t.Helper()
	yamlPath := filepath.Join(dir, "expected.yaml")

	tc := &TestCase{}
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	err = yaml.Unmarshal(data, tc)
	require.NoError(t, err)

	// Use relative path from testdata root if provided.
	if root != "" {
		relPath, err := filepath.Rel(root, dir)
		if err != nil {
			tc.Dir = filepath.Base(dir)
		} else {
			tc.Dir = relPath
		}
		return tc
	}

	tc.Dir = filepath.Base(dir)
	return tc
}
