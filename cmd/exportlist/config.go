package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v3"
)

// fileConfig is the shape of the --config yaml file.
type fileConfig struct {
	Exclude       []string `yaml:"exclude"`
	SkipGenerated *bool    `yaml:"skip_generated,omitempty"`
	All           *bool    `yaml:"all,omitempty"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	fc := &fileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return fc, nil
}

// apply fills in settings the user did not set explicitly on the command line.
func (fc *fileConfig) apply(c *Config, flags *pflag.FlagSet) {
	if !flags.Changed("exclude") {
		c.Exclude = append(c.Exclude, fc.Exclude...)
	}
	if fc.SkipGenerated != nil && !flags.Changed("skip-generated") {
		c.SkipGenerated = *fc.SkipGenerated
	}
	if fc.All != nil && !flags.Changed("all") {
		c.All = *fc.All
	}
}
