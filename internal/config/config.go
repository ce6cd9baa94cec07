// Package config provides configuration file support for fixkit.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spechtlabs/fixkit/rule"
)

// ConfigFileName is the default configuration file name.
const ConfigFileName = ".fixkit.yaml"

// TOMLConfigFileName is accepted when no YAML file is present.
const TOMLConfigFileName = ".fixkit.toml"

// DefaultKey is the rules key that applies to every rule without its own entry.
const DefaultKey = "default"

// Config represents the fixkit configuration.
type Config struct {
	// Rules configures which rules are enabled/disabled, by rule name or
	// descriptor id.
	// Use "default: false" to disable all by default, then enable specific ones.
	// Use "default: true" (or omit) to keep every rule's compiled default.
	Rules map[string]bool `yaml:"rules" toml:"rules"`

	// Severity overrides the severity of a rule's descriptors (by rule name)
	// or of one descriptor (by id). "none" disables.
	Severity map[string]string `yaml:"severity" toml:"severity"`

	// Exclude lists doublestar globs of paths that are never analyzed.
	Exclude []string `yaml:"exclude" toml:"exclude"`

	Fix FixSettings `yaml:"fix" toml:"fix"`

	// path is the file the configuration was read from.
	path string
}

// FixSettings tunes the fix-all engine.
type FixSettings struct {
	Parallelism   int `yaml:"parallelism" toml:"parallelism"`
	MaxIterations int `yaml:"max-iterations" toml:"max-iterations"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{Rules: map[string]bool{DefaultKey: true}}
}

// Path returns the file the configuration was loaded from, or "".
func (c *Config) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Load attempts to load configuration from .fixkit.yaml (or .fixkit.toml) in
// the current directory or any parent directory up to the filesystem root.
func Load() (*Config, error) {
	path, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	if path == "" {
		// No config file found, return default config
		return Default(), nil
	}

	return LoadFrom(path)
}

// LoadFrom loads configuration from the specified path. Files ending in
// .toml are decoded as TOML, everything else as YAML.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if filepath.Ext(path) == ".toml" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	}

	// Ensure Rules map exists
	if cfg.Rules == nil {
		cfg.Rules = map[string]bool{DefaultKey: true}
	}
	cfg.path = path

	return &cfg, nil
}

// findConfigFile searches for .fixkit.yaml or .fixkit.toml starting from the
// current directory and walking up to parent directories.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{ConfigFileName, TOMLConfigFileName} {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// FilterRules returns only the rules that are enabled according to the config.
func (c *Config) FilterRules(all []*rule.Rule) []*rule.Rule {
	if c == nil || c.Rules == nil {
		return all
	}

	// Check default setting
	defaultEnabled := true
	if val, ok := c.Rules[DefaultKey]; ok {
		defaultEnabled = val
	}

	enabled := []*rule.Rule{}
	for _, r := range all {
		// Check if this specific rule has an override
		if val, ok := c.Rules[r.Name]; ok {
			if val {
				enabled = append(enabled, r)
			}
			// Explicitly disabled, skip
			continue
		}

		// A descriptor id switched on keeps its rule; the resolver decides
		// per descriptor.
		if defaultEnabled || c.enablesDescriptor(r) {
			enabled = append(enabled, r)
		}
	}

	return enabled
}

func (c *Config) enablesDescriptor(r *rule.Rule) bool {
	for _, d := range r.Descriptors {
		if c.Rules[d.ID] {
			return true
		}
	}
	return false
}

// IsEnabled checks if a specific rule is enabled.
func (c *Config) IsEnabled(name string) bool {
	if c == nil || c.Rules == nil {
		return true
	}

	// Check specific setting
	if val, ok := c.Rules[name]; ok {
		return val
	}

	// Check default
	if val, ok := c.Rules[DefaultKey]; ok {
		return val
	}

	return true
}
