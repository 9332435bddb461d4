// Package main implements the CLI driver for the exportlist analyzer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/715d/exportlist/pkg/exportscan"
)

// Config holds all command-line configuration options for the exportlist analyzer.
type Config struct {
	Patterns      []string // files, directories or globs to analyze
	Verbose       bool     // enables detailed output and statistics
	JSON          bool     // enables JSON output format
	Exclude       []string // globs of files to leave out
	Profile       bool     // enables CPU and memory profiling
	SkipGenerated bool     // skip files with generated code markers
	All           bool     // also list non-exported symbols
	ConfigFile    string   // optional yaml file with defaults
}

const exitError = 2

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var cfg Config

func main() {
	rootCmd := newRootCmd(&cfg)
	if err := rootCmd.Execute(); err != nil {
		_ = teardown(nil, nil)
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

func newRootCmd(c *Config) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "exportlist [patterns...]",
		Short: "List the public interface of Python modules",
		Long: `exportlist reports which top-level symbols each Python module exports.

A module that declares __all__ exports exactly the names listed there,
whatever their spelling. Without __all__, every class, function and
UPPER_CASE constant is exported unless its name starts with an underscore
(dunder names such as __version__ stay public).`,
		Example: `  exportlist                          # Analyze every .py file below .
  exportlist src/...                  # Analyze a directory tree
  exportlist 'pkg/**/*.py'            # Analyze a glob
  exportlist --all -v src             # Show every symbol with its reason
  exportlist --json . > exports.json  # JSON output to file`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, args, c)
		},
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return setup(cmd, c) },
		PersistentPostRunE: teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Version:            version,
	}

	// Set custom version template to include build info.
	rootCmd.SetVersionTemplate(fmt.Sprintf("exportlist version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	// Define flags.
	rootCmd.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&c.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringSliceVar(&c.Exclude, "exclude", []string{}, "Glob patterns of files to skip (e.g., '**/tests/**')")
	rootCmd.PersistentFlags().BoolVar(&c.Profile, "profile", false, "Enable CPU and memory profiling (writes cpu.prof and mem.prof to current directory)")
	rootCmd.PersistentFlags().BoolVar(&c.SkipGenerated, "skip-generated", true, "Skip files with generated code markers (e.g., '# Code generated')")
	rootCmd.PersistentFlags().BoolVar(&c.All, "all", false, "Also list symbols that are not exported")
	rootCmd.PersistentFlags().StringVar(&c.ConfigFile, "config", "", "YAML file providing default exclude, skip_generated and all settings")

	return rootCmd
}

func runCommand(cmd *cobra.Command, args []string, c *Config) error {
	if len(args) > 0 {
		c.Patterns = args
	} else {
		c.Patterns = []string{"./..."}
	}

	slog.Info("starting export analysis", "patterns", c.Patterns)

	result, err := runAnalysis(cmd.Context(), c)
	if err != nil {
		return errWithCode(fmt.Errorf("analyze: %w", err), exitError)
	}

	if err := writeResults(cmd.OutOrStdout(), result, c); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}
	return nil
}

// Result represents the analysis output including every module analyzed and
// execution statistics.
type Result struct {
	Modules []exportscan.ModuleExports `json:"modules"`
	Stats   struct {
		Files            int           `json:"files"`
		WithExportList   int           `json:"with_export_list"`
		TotalSymbols     int           `json:"total_symbols"`
		ExportedSymbols  int           `json:"exported_symbols"`
		MissingNames     int           `json:"missing_names"`
		AnalysisDuration time.Duration `json:"analysis_duration"`
	} `json:"stats"`
}

func runAnalysis(ctx context.Context, c *Config) (*Result, error) {
	start := time.Now()

	slog.Info("loading files", "patterns", c.Patterns)
	if len(c.Exclude) > 0 {
		slog.Info("using exclude patterns", "exclude", c.Exclude)
	}

	files, err := exportscan.LoadFiles(ctx, exportscan.LoaderOptions{
		Patterns: c.Patterns,
		Exclude:  c.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("loading files: %w", err)
	}
	slog.Info("loaded files", "num", len(files))

	slog.Info("running analysis")
	analyzer := exportscan.NewAnalyzer(exportscan.AnalyzerOptions{
		SkipGenerated: c.SkipGenerated,
	})
	modules, err := analyzer.Analyze(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("analyze files: %w", err)
	}
	duration := time.Since(start)
	slog.Info("analysis completed", "dur", duration)

	return convertToResult(modules, duration), nil
}

func convertToResult(modules []exportscan.ModuleExports, dur time.Duration) *Result {
	r := Result{Modules: modules}
	r.Stats.AnalysisDuration = dur

	for _, m := range modules {
		r.Stats.Files++
		if m.HasExportList {
			r.Stats.WithExportList++
		}
		r.Stats.TotalSymbols += len(m.Symbols)
		r.Stats.ExportedSymbols += len(m.Exported)
		r.Stats.MissingNames += len(m.Missing)
	}
	return &r
}

func writeResults(w io.Writer, result *Result, c *Config) error {
	var output string
	var err error

	if c.JSON {
		output, err = formatJSONOutput(result)
	} else {
		output = formatTextOutput(result, c)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, output)
	return err
}

func formatJSONOutput(result *Result) (string, error) {
	data, err := json.MarshalIndent(jOutput{
		Modules:   result.Modules,
		Stats:     result.Stats,
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling json output: %w", err)
	}
	return string(data) + "\n", nil
}

func formatTextOutput(result *Result, c *Config) string {
	var output strings.Builder

	if c.Verbose {
		slog.Info("",
			"files", result.Stats.Files,
			"with_export_list", result.Stats.WithExportList,
			"total_symbols", result.Stats.TotalSymbols,
			"exported_symbols", result.Stats.ExportedSymbols,
			"analysis_duration", result.Stats.AnalysisDuration.String())
	}

	for _, m := range result.Modules {
		if c.Verbose && len(result.Modules) > 1 {
			output.WriteString(fmt.Sprintf("\n%s (%s):\n", m.Module, m.File))
		}

		for _, si := range m.Symbols {
			if !si.IsExported && !c.All {
				continue
			}
			switch {
			case c.Verbose || c.All:
				// Format: +/- filename:line module.name (kind, reason)
				marker := "+"
				if !si.IsExported {
					marker = "-"
				}
				output.WriteString(fmt.Sprintf("%s %s:%d %s (%s, %s)\n",
					marker, si.File, si.Line, si.QualifiedName(), si.Kind, si.Reason))
			default:
				// Format: filename:line name (kind)
				output.WriteString(fmt.Sprintf("%s:%d %s (%s)\n", si.File, si.Line, si.Name, si.Kind))
			}
		}

		for _, name := range m.Missing {
			slog.Warn("__all__ names no top-level class, function or constant", "file", m.File, "name", name)
		}
	}

	if result.Stats.ExportedSymbols == 0 {
		slog.Info("no exported symbols found")
	}
	return output.String()
}

type jOutput struct {
	Modules   []exportscan.ModuleExports `json:"modules"`
	Stats     any                        `json:"stats"`
	Version   string                     `json:"version"`
	Timestamp string                     `json:"timestamp"`
}

var cpuProfile *os.File

func setup(cmd *cobra.Command, c *Config) error {
	// Disable logger unless verbose flag is set.
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if c.Verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var handler slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
		if c.JSON {
			handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
		}
		slog.SetDefault(slog.New(handler))
	}

	if c.ConfigFile != "" {
		fc, err := loadFileConfig(c.ConfigFile)
		if err != nil {
			return errWithCode(err, exitError)
		}
		fc.apply(c, cmd.Flags())
		slog.Info("loaded config file", "path", c.ConfigFile)
	}

	if !c.Profile {
		return nil
	}

	// Start CPU profiling.
	var err error
	cpuProfile, err = os.Create("cpu.prof")
	if err != nil {
		return fmt.Errorf("creating cpu.prof: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		_ = cpuProfile.Close()
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	slog.Info("cpu profiling started", "file", "cpu.prof")
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if cpuProfile == nil {
		return nil
	}

	// Stop CPU profiling and close file.
	pprof.StopCPUProfile()
	defer cpuProfile.Close()
	cpuProfile = nil
	slog.Info("cpu profiling stopped", "file", "cpu.prof")

	// Write memory profile.
	memFile, err := os.Create("mem.prof")
	if err != nil {
		return fmt.Errorf("creating mem.prof: %w", err)
	}
	defer memFile.Close()
	runtime.GC() // Get up-to-date statistics
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	slog.Info("memory profiling completed", "file", "mem.prof")
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error {
	return e.err
}
