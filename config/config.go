// Package config provides configuration loading for the jadescript tools.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config represents the complete tool configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig configures the analyzer
type AnalysisConfig struct {
	// Strict fails a unit on any error diagnostic
	Strict *bool `yaml:"strict"`
	// Parallelism bounds concurrent units (0 = unbounded)
	Parallelism int `yaml:"parallelism"`
	// Module overrides the module name of every unit
	Module string `yaml:"module"`
	// Extensions lists the file extensions picked up from directories
	Extensions []string `yaml:"extensions"`
}

// OutputConfig configures diagnostic rendering
type OutputConfig struct {
	// Format is "text" or "json"
	Format string `yaml:"format"`
	// Color highlights severities in text output
	Color *bool `yaml:"color"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Strict:      boolPtr(false),
			Parallelism: 0,
			Extensions:  []string{".jade"},
		},
		Output: OutputConfig{
			Format: FormatText,
			Color:  boolPtr(true),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// IsStrict reports the effective strict setting
func (c *Config) IsStrict() bool {
	return c.Analysis.Strict != nil && *c.Analysis.Strict
}

// UseColor reports the effective color setting
func (c *Config) UseColor() bool {
	return c.Output.Color == nil || *c.Output.Color
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format must be %q or %q, got %q", FormatText, FormatJSON, c.Output.Format)
	}
	if c.Analysis.Parallelism < 0 {
		return fmt.Errorf("analysis.parallelism must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	for _, ext := range c.Analysis.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("analysis.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

// LogLevel parses the configured level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// set values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Analysis.Strict != nil {
		c.Analysis.Strict = boolPtr(*other.Analysis.Strict)
	}
	if other.Analysis.Parallelism != 0 {
		c.Analysis.Parallelism = other.Analysis.Parallelism
	}
	if other.Analysis.Module != "" {
		c.Analysis.Module = other.Analysis.Module
	}
	if len(other.Analysis.Extensions) > 0 {
		c.Analysis.Extensions = append([]string{}, other.Analysis.Extensions...)
	}

	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Color != nil {
		c.Output.Color = boolPtr(*other.Output.Color)
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
