// Package config loads campaign configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fenrir-sec/fenrir/pkg/defaults"
)

// Smuggling holds the smuggling run options.
type Smuggling struct {
	Enabled        bool    `yaml:"enabled"`
	ScoreThreshold int     `yaml:"score_threshold"`
	DelaySeconds   float64 `yaml:"delay_seconds"`
}

// Config is the campaign file schema.
type Config struct {
	Target        string    `yaml:"target"`
	Categories    []string  `yaml:"categories"`
	MaxConcurrent int       `yaml:"max_concurrent"`
	RateLimit     float64   `yaml:"rate_limit"`
	SkipVerify    bool      `yaml:"skip_verify"`
	Smuggling     Smuggling `yaml:"smuggling"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Categories:    []string{"sqli", "xss", "traversal", "cmdi", "edge"},
		MaxConcurrent: defaults.ConcurrencyMedium,
		Smuggling: Smuggling{
			ScoreThreshold: defaults.SmugglingScoreThreshold,
		},
	}
}

// Load reads and validates a campaign file. Fields absent from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("config: target is required")
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("config: max_concurrent must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative")
	}
	if c.Smuggling.ScoreThreshold < 1 {
		return fmt.Errorf("config: smuggling score_threshold must be at least 1")
	}
	return nil
}
