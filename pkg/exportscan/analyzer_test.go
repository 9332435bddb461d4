package exportscan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/exportlist/internal/analysis"
	"github.com/715d/exportlist/pkg/exports"
)

func exportedNames(me ModuleExports) []string {
	var out []string
	for _, s := range me.Exported {
		out = append(out, s.Name)
	}
	return out
}

// TestAnalyzer_NewAnalyzer tests analyzer creation.
func TestAnalyzer_NewAnalyzer(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})
	require.NotNil(t, analyzer, "NewAnalyzer returned nil")
	require.NotNil(t, analyzer.nameCache, "Expected name cache to be initialized")
}

func TestAnalyzer_Analyze(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/shop/models.py":   "__all__ = ['Order', 'Ghost']\n\nclass Order:\n    pass\n\nclass Cart:\n    pass\n",
		"src/shop/helpers.py":  "def format_price(x):\n    return x\n\ndef _round(x):\n    return x\n",
		"src/shop/__init__.py": "__all__ = []\n\nVERSION = '1'\n",
		"src/shop/gen_pb2.py":  "# Code generated by protoc. DO NOT EDIT.\n\nclass Message:\n    pass\n",
	})

	files, err := LoadFiles(context.Background(), LoaderOptions{Dir: root})
	require.NoError(t, err)

	tests := []struct {
		name          string
		opts          AnalyzerOptions
		expectedFiles int
	}{
		{name: "all files", opts: AnalyzerOptions{}, expectedFiles: 4},
		{name: "skip generated", opts: AnalyzerOptions{SkipGenerated: true}, expectedFiles: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := NewAnalyzer(tt.opts).Analyze(context.Background(), files)
			require.NoError(t, err)
			require.Len(t, results, tt.expectedFiles)

			byModule := make(map[string]ModuleExports)
			for i, r := range results {
				if i > 0 {
					require.Less(t, results[i-1].File, r.File, "results not sorted by file")
				}
				byModule[r.Module] = r
			}

			models := byModule["shop.models"]
			require.True(t, models.HasExportList)
			require.Equal(t, []string{"Order"}, exportedNames(models))
			require.Equal(t, []string{"Ghost"}, models.Missing)
			require.Len(t, models.Symbols, 2)
			require.Equal(t, analysis.ReasonNotListed, models.Symbols[1].Reason)

			helpers := byModule["shop.helpers"]
			require.False(t, helpers.HasExportList)
			require.Equal(t, []string{"format_price"}, exportedNames(helpers))

			pkg := byModule["shop"]
			require.True(t, pkg.HasExportList)
			require.Empty(t, pkg.Exported)
		})
	}
}

func TestAnalyzer_AnalyzeErrors(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})

	_, err := analyzer.Analyze(context.Background(), nil)
	require.ErrorContains(t, err, "no files")

	missing := filepath.Join(t.TempDir(), "missing.py")
	_, err = analyzer.Analyze(context.Background(), []string{missing})
	require.ErrorContains(t, err, "missing.py")
}

func TestAnalyzer_AnalyzeSource(t *testing.T) {
	me := NewAnalyzer(AnalyzerOptions{}).AnalyzeSource("samples/all_exports.py", []byte(
		"__all__ = [\"PublicClass\", \"public_func\", \"API_URL\"]\n"+
			"class PublicClass:\n    pass\n"+
			"class _PrivateClass:\n    pass\n"+
			"class InternalHelper:\n    pass\n"+
			"def public_func():\n    pass\n"+
			"def _private_helper():\n    pass\n"+
			"def another_public_func():\n    pass\n"+
			"API_URL = \"https://api.example.com\"\n"+
			"MAX_RETRIES = 3\n"))

	require.Equal(t, "samples.all_exports", me.Module)
	require.Equal(t, []string{"PublicClass", "public_func", "API_URL"}, exportedNames(me))
	require.Empty(t, me.Missing)
	require.Len(t, me.Symbols, 8)

	listed := exports.DeclaredExportList("PublicClass", "public_func", "API_URL")
	for _, si := range me.Symbols {
		require.Equal(t, listed.Contains(si.Name), si.IsExported, si.Name)
	}
}

func TestIsGenerated(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected bool
	}{
		{name: "protoc header", src: "# -*- coding: utf-8 -*-\n# Generated by the protocol buffer compiler.  DO NOT EDIT!\n", expected: true},
		{name: "code generated", src: "\n# Code generated by tool.\nimport os\n", expected: true},
		{name: "plain module", src: "import os\n# DO NOT EDIT\n", expected: false},
		{name: "empty", src: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, isGenerated([]byte(tt.src)))
		})
	}
}
