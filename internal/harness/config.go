// Package harness provides test harness infrastructure for validating the analyzer against fixture trees.
package harness

// TestCase represents a single test scenario.
type TestCase struct {
	// Dir is the directory containing the fixture files.
	Dir string `yaml:"-"`

	// Runs defines the analyzer configurations to exercise against Dir.
	Runs []RunConfig `yaml:"runs"`
}

// RunConfig is one analyzer configuration and the modules it should produce.
type RunConfig struct {
	// Name is a descriptive name for this configuration.
	Name string `yaml:"name"`

	// Patterns are passed to the loader; empty means every file.
	Patterns []string `yaml:"patterns,omitempty"`

	// Exclude are glob patterns to leave out.
	Exclude []string `yaml:"exclude,omitempty"`

	// SkipGenerated drops files carrying generated code markers.
	SkipGenerated bool `yaml:"skip_generated"`

	// ExpectedModules lists every module the run should report.
	ExpectedModules []ExpectedModule `yaml:"expected_modules"`

	// ExpectedErrors lists any expected error messages for this configuration.
	ExpectedErrors []string `yaml:"expected_errors,omitempty"`
}

// ExpectedModule is the public interface a fixture file should resolve to.
type ExpectedModule struct {
	// File is the path relative to the test case directory.
	File string `yaml:"file"`

	// Module is the expected dotted module name, checked when set.
	Module string `yaml:"module,omitempty"`

	// HasExportList tells whether the file declares __all__.
	HasExportList bool `yaml:"has_export_list"`

	// Exported lists the exported names in declaration order.
	Exported []string `yaml:"exported"`

	// Missing lists __all__ names with no declaration.
	Missing []string `yaml:"missing,omitempty"`
}
