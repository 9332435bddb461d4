package harness

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/exportlist/pkg/exportscan"
)

// TestHarness manages test execution.
type TestHarness struct {
	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness.
func NewHarness(root string) *TestHarness {
	return &TestHarness{root: root}
}

// Run executes a test case with all its run configurations.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.Runs, "test case has no runs")

	var results []RunResult
	var allSuccess = true

	for _, run := range tc.Runs {
		runResult := h.runConfiguration(t, tc, run)
		results = append(results, *runResult)
		if !runResult.Success {
			allSuccess = false
		}
	}

	// Create overall result message.
	var resultMsg string
	if allSuccess {
		resultMsg = fmt.Sprintf("All %d runs passed", len(tc.Runs))
	} else {
		failedCount := 0
		var msgs []string
		for _, rr := range results {
			if !rr.Success {
				failedCount++
				msgs = append(msgs, fmt.Sprintf("[%s] %s:\n  %s",
					rr.Run.Name, rr.Message, strings.Join(rr.Details, "\n  ")))
			}
		}
		resultMsg = fmt.Sprintf("%d/%d runs failed:\n%s",
			failedCount, len(tc.Runs), strings.Join(msgs, "\n"))
	}

	return &TestResult{
		TestCase:   tc,
		RunResults: results,
		Success:    allSuccess,
		Message:    resultMsg,
	}
}

// runConfiguration executes analysis for a single run configuration
func (h *TestHarness) runConfiguration(t *testing.T, tc *TestCase, run RunConfig) *RunResult {
	t.Helper()
	dir := filepath.Join(h.root, tc.Dir)

	files, err := LoadFiles(t, dir, run)
	var modules []exportscan.ModuleExports
	if err == nil {
		modules, err = exportscan.NewAnalyzer(exportscan.AnalyzerOptions{
			SkipGenerated: run.SkipGenerated,
		}).Analyze(t.Context(), files)
	}
	if err != nil {
		// Check if this error was expected.
		for _, expectedErr := range run.ExpectedErrors {
			if strings.Contains(err.Error(), expectedErr) {
				return &RunResult{
					Run:     run,
					Success: true,
					Message: fmt.Sprintf("Got expected error: %v", err),
				}
			}
		}
		require.NoError(t, err)
	}

	return validateRunResults(dir, run, modules)
}

// RunResult represents the result of running a single configuration.
type RunResult struct {
	// Run is the configuration that was run.
	Run RunConfig

	// Modules is the raw result from the analyzer.
	Modules []exportscan.ModuleExports

	// Success indicates if this configuration passed.
	Success bool

	// Message provides a summary of the result for this configuration.
	Message string

	// Details provides detailed information about failures for this configuration.
	Details []string
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// RunResults contains results for each run configuration.
	RunResults []RunResult

	// Success indicates if the test passed (all runs passed)
	Success bool

	// Message provides a summary of the result.
	Message string
}

// validateExpectedModules validates that expected modules have required fields
func validateExpectedModules(expected []ExpectedModule) error {
	for i, exp := range expected {
		if strings.TrimSpace(exp.File) == "" {
			return fmt.Errorf("expected module at index %d has empty or missing 'file' field", i)
		}
	}
	return nil
}

// validateRunResults compares actual modules with the expected ones.
func validateRunResults(dir string, run RunConfig, modules []exportscan.ModuleExports) *RunResult {
	rr := RunResult{Run: run, Modules: modules}

	if err := validateExpectedModules(run.ExpectedModules); err != nil {
		rr.Message = fmt.Sprintf("Invalid expected.yaml: %v", err)
		rr.Details = []string{err.Error()}
		return &rr
	}

	actual := make(map[string]exportscan.ModuleExports, len(modules))
	for _, m := range modules {
		actual[relativeFile(dir, m.File)] = m
	}

	var details []string
	for _, exp := range run.ExpectedModules {
		act, found := actual[exp.File]
		if !found {
			details = append(details, "Module not reported: "+exp.File)
			continue
		}
		delete(actual, exp.File)
		details = append(details, compareModule(exp, act)...)
	}

	var unexpected []string
	for file := range actual {
		unexpected = append(unexpected, "Module should not have been reported: "+file)
	}
	slices.Sort(unexpected)
	details = append(details, unexpected...)

	rr.Success = len(details) == 0
	rr.Details = details
	if rr.Success {
		rr.Message = fmt.Sprintf("All %d expected modules matched", len(run.ExpectedModules))
	} else {
		rr.Message = fmt.Sprintf("Test failed: %d mismatches", len(details))
	}
	return &rr
}

func compareModule(exp ExpectedModule, act exportscan.ModuleExports) []string {
	var details []string

	if exp.Module != "" && exp.Module != act.Module {
		details = append(details, fmt.Sprintf("%s: module name %q, want %q", exp.File, act.Module, exp.Module))
	}
	if exp.HasExportList != act.HasExportList {
		details = append(details, fmt.Sprintf("%s: has_export_list %v, want %v", exp.File, act.HasExportList, exp.HasExportList))
	}

	var exported []string
	for _, s := range act.Exported {
		exported = append(exported, s.Name)
	}
	if !slices.Equal(exp.Exported, exported) {
		details = append(details, fmt.Sprintf("%s: exported %v, want %v", exp.File, exported, exp.Exported))
	}
	if !slices.Equal(exp.Missing, act.Missing) {
		details = append(details, fmt.Sprintf("%s: missing %v, want %v", exp.File, act.Missing, exp.Missing))
	}
	return details
}

// relativeFile returns file relative to dir with forward slashes.
func relativeFile(dir, file string) string {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}
