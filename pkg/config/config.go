// Package config loads the toolchain settings from mgo.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultFile is looked up in the working directory when no -config is given.
const DefaultFile = "mgo.yaml"

// Config is the merged toolchain configuration.
type Config struct {
	Language string `yaml:"language"`  // en | uk
	Trace    string `yaml:"trace"`     // error | info | debug
	EmitCIL  bool   `yaml:"emit_cil"`  // also write the .cil listing
	MaxSteps int    `yaml:"max_steps"` // 0 = unlimited
	Storage  string `yaml:"storage"`   // artifact disk directory, empty for plain files
	Prompt   string `yaml:"prompt"`    // console prompt for scan
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Language: "en",
		Trace:    "error",
		EmitCIL:  true,
		Prompt:   "> ",
	}
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path. A missing file yields the defaults when optional is set.
func Load(path string, optional bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields and ranges.
func (c Config) Validate() error {
	switch c.Language {
	case "en", "uk":
	default:
		return fmt.Errorf("language %q is not supported (want en or uk)", c.Language)
	}
	switch c.Trace {
	case "error", "info", "debug":
	default:
		return fmt.Errorf("trace level %q is not supported (want error, info or debug)", c.Trace)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	return nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
