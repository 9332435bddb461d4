package exportscan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/715d/exportlist/internal/analysis"
	"github.com/715d/exportlist/pkg/exports"
	"github.com/715d/exportlist/pkg/pysource"
)

// AnalyzerOptions holds configuration options for the analyzer.
type AnalyzerOptions struct {
	SkipGenerated bool // Skip files with generated code markers.
}

// Analyzer reads Python files and resolves their exports.
type Analyzer struct {
	nameCache *analysis.ModuleNameCache
	opts      AnalyzerOptions
}

// NewAnalyzer creates a new analyzer with the given options.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	return &Analyzer{
		nameCache: analysis.NewModuleNameCache(),
		opts:      opts,
	}
}

// Analyze resolves the exports of every file. Results are sorted by file;
// generated files are left out when SkipGenerated is set.
func (a *Analyzer) Analyze(ctx context.Context, files []string) ([]ModuleExports, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	// Each goroutine owns results[idx]; nil marks a skipped file.
	results := make([]*ModuleExports, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(goruntime.NumCPU())
	var skipped int64

	for idx, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			src, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			if a.opts.SkipGenerated && isGenerated(src) {
				slog.Debug("skipping generated file", "file", file)
				atomic.AddInt64(&skipped, 1)
				return nil
			}

			me := a.AnalyzeSource(file, src)
			results[idx] = &me
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ModuleExports, 0, len(files)-int(skipped))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(x, y ModuleExports) int {
		return strings.Compare(x.File, y.File)
	})
	return out, nil
}

// AnalyzeSource resolves the exports of one file's contents.
func (a *Analyzer) AnalyzeSource(file string, src []byte) ModuleExports {
	m := pysource.Parse(src)
	module := a.nameCache.ModuleName(file)

	me := ModuleExports{
		File:          file,
		Module:        module,
		HasExportList: m.Exports.Declared(),
		Exported:      exports.Resolve(m),
		Missing:       exports.Missing(m),
		Symbols:       make([]analysis.SymbolInfo, 0, len(m.Symbols)),
	}
	for _, s := range m.Symbols {
		me.Symbols = append(me.Symbols, analysis.NewSymbolInfo(m, s, file, module))
	}

	if len(me.Missing) > 0 {
		slog.Debug("__all__ names no top-level class, function or constant", "file", file, "names", me.Missing)
	}
	return me
}

// headerLines bounds how far isGenerated looks for a marker.
const headerLines = 20

// isGenerated checks the leading comment lines for generated code markers.
func isGenerated(src []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for i := 0; i < headerLines && scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			return false
		}
		if strings.Contains(line, "Code generated") ||
			strings.Contains(line, "DO NOT EDIT") ||
			strings.Contains(line, "autogenerated") ||
			strings.Contains(line, "AUTO-GENERATED") {
			return true
		}
	}
	return false
}
