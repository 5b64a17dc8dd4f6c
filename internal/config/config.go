// Package config loads the oniongen YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mahdiidarabi/oniongen/internal/metrics"
	"github.com/mahdiidarabi/oniongen/internal/pipeline"
	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// Config is the configuration of a search run.
type Config struct {
	// WordLists are newline-delimited word files loaded into the dictionary.
	WordLists []string `yaml:"word_lists"`
	// Full requires the whole address to split into dictionary words.
	Full bool `yaml:"full"`

	Workers  int    `yaml:"workers"`   // 0 = one per CPU
	PoolSize int    `yaml:"pool_size"` // primes drawn per pool
	Bits     int    `yaml:"bits"`      // bit length of each prime
	Rounds   int    `yaml:"rounds"`    // Miller-Rabin rounds
	MaxPairs int    `yaml:"max_pairs"` // 0 = run until interrupted
	Drain    string `yaml:"drain"`     // "exponent" or "pair"

	Out         string `yaml:"out"`          // directory for <address>.onion files
	Database    string `yaml:"database"`     // optional SQLite path
	MetricsFile string `yaml:"metrics_file"` // optional Prometheus textfile

	ReportInterval time.Duration `yaml:"report_interval"`
	Verbose        bool          `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PoolSize:       100,
		Bits:           oniongen.DefaultPrimeBits,
		Rounds:         oniongen.DefaultPrimeRounds,
		Drain:          pipeline.DrainExponent.String(),
		Out:            ".",
		ReportInterval: metrics.DefaultReportInterval,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if len(c.WordLists) == 0 {
		errs = append(errs, oniongen.ErrNoWordLists)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.PoolSize < 2 {
		errs = append(errs, fmt.Errorf("pool_size must be at least 2, got %d", c.PoolSize))
	}
	if c.Bits < 16 {
		errs = append(errs, fmt.Errorf("bits must be at least 16, got %d", c.Bits))
	}
	if c.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be at least 1, got %d", c.Rounds))
	}
	if c.MaxPairs < 0 {
		errs = append(errs, fmt.Errorf("max_pairs must not be negative, got %d", c.MaxPairs))
	}
	if c.ReportInterval <= 0 {
		errs = append(errs, fmt.Errorf("report_interval must be positive, got %s", c.ReportInterval))
	}
	if c.Out == "" {
		errs = append(errs, errors.New("out directory must be set"))
	}
	if _, err := pipeline.ParseDrainMode(c.Drain); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the matching policy selected by Full.
func (c *Config) Policy() oniongen.Policy {
	if c.Full {
		return oniongen.PolicyFull
	}
	return oniongen.PolicyPrefix
}

// Pipeline converts the configuration into pipeline settings. Call Validate
// first.
func (c *Config) Pipeline() pipeline.Config {
	drain, _ := pipeline.ParseDrainMode(c.Drain)
	return pipeline.Config{
		Workers:     c.Workers,
		PrimeBits:   c.Bits,
		PrimeRounds: c.Rounds,
		PoolSize:    c.PoolSize,
		MaxPairs:    c.MaxPairs,
		Drain:       drain,
	}
}
