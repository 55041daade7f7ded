// Package config provides configuration management for the yulimport
// preprocessor.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the complete yulimport project configuration.
type Config struct {
	Root   RootConfig   `toml:"root"`
	Format FormatConfig `toml:"format"`
	Walk   WalkConfig   `toml:"walk"`
	Cache  CacheConfig  `toml:"cache"`
}

// RootConfig controls how an absolute import location (spec.md §4.4's
// location syntax) is rooted.
type RootConfig struct {
	// ConfiguredRoot is the directory an absolute import location (one
	// beginning with "/") is joined against. Empty means the directory
	// passed on the command line.
	ConfiguredRoot string `toml:"configured_root"`
}

// FormatConfig controls the post-processing formatter hook.
type FormatConfig struct {
	// Enabled runs the formatter binary over output after a directory
	// preprocess.
	Enabled bool `toml:"enabled"`

	// Binary is the formatter executable name or path, e.g. "forge".
	Binary string `toml:"binary"`

	// Args are passed to Binary ahead of the target path, e.g. ["fmt"].
	Args []string `toml:"args"`

	// TimeoutSeconds bounds how long the formatter is allowed to run
	// before being killed and treated as a (non-fatal) warning.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// WalkConfig controls the directory driver.
type WalkConfig struct {
	// SkipMarkers are case-insensitive substrings that, if found in a
	// file's first 10 lines (whitespace-collapsed), cause that file to be
	// skipped entirely rather than preprocessed.
	SkipMarkers []string `toml:"skip_markers"`

	// Concurrency bounds how many files the walker preprocesses at once.
	// 0 means GOMAXPROCS.
	Concurrency int `toml:"concurrency"`

	// InputSuffix and OutputSuffix override the default ".presl" /
	// ".post.sol" file-extension convention.
	InputSuffix  string `toml:"input_suffix"`
	OutputSuffix string `toml:"output_suffix"`
}

// CacheConfig controls the optional on-disk resolver cache.
type CacheConfig struct {
	// Dir, if non-empty, enables a persistent content-hash cache at this
	// directory across process invocations.
	Dir string `toml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Root: RootConfig{
			ConfiguredRoot: "",
		},
		Format: FormatConfig{
			Enabled:        true,
			Binary:         "forge",
			Args:           []string{"fmt"},
			TimeoutSeconds: 30,
		},
		Walk: WalkConfig{
			SkipMarkers:  []string{"does-not-compile", "doesnotcompile"},
			Concurrency:  0,
			InputSuffix:  ".presl",
			OutputSuffix: ".post.sol",
		},
		Cache: CacheConfig{
			Dir: "",
		},
	}
}

// Load loads configuration from multiple sources with precedence:
//  1. CLI flags (highest priority) - passed as overrides
//  2. Project yulimport.toml (current directory)
//  3. User config (~/.yulimport/config.toml)
//  4. Built-in defaults (lowest priority)
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := filepath.Join(os.Getenv("HOME"), ".yulimport", "config.toml")
	if err := loadConfigFile(userConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	projectConfigPath := "yulimport.toml"
	if err := loadConfigFile(projectConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyOverrides(cfg, overrides *Config) {
	if overrides.Root.ConfiguredRoot != "" {
		cfg.Root.ConfiguredRoot = overrides.Root.ConfiguredRoot
	}
	if overrides.Format.Binary != "" {
		cfg.Format.Binary = overrides.Format.Binary
	}
	if len(overrides.Format.Args) > 0 {
		cfg.Format.Args = overrides.Format.Args
	}
	if overrides.Format.TimeoutSeconds != 0 {
		cfg.Format.TimeoutSeconds = overrides.Format.TimeoutSeconds
	}
	if len(overrides.Walk.SkipMarkers) > 0 {
		cfg.Walk.SkipMarkers = overrides.Walk.SkipMarkers
	}
	if overrides.Walk.Concurrency != 0 {
		cfg.Walk.Concurrency = overrides.Walk.Concurrency
	}
	if overrides.Cache.Dir != "" {
		cfg.Cache.Dir = overrides.Cache.Dir
	}
	// Format.Enabled is handled separately by the CLI via --no-format,
	// since a bool override can't distinguish "false" from "not set" here.
}

// loadConfigFile loads a TOML configuration file into cfg. A missing file
// is not an error: it leaves cfg's current values (the defaults) in place.
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Format.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid format.timeout_seconds: %d (must be >= 0)", c.Format.TimeoutSeconds)
	}
	if c.Walk.Concurrency < 0 {
		return fmt.Errorf("invalid walk.concurrency: %d (must be >= 0)", c.Walk.Concurrency)
	}
	if c.Walk.InputSuffix == "" {
		return fmt.Errorf("walk.input_suffix must not be empty")
	}
	if c.Walk.OutputSuffix == "" {
		return fmt.Errorf("walk.output_suffix must not be empty")
	}
	if c.Format.Enabled && c.Format.Binary == "" {
		return fmt.Errorf("format.binary must be set when format.enabled is true")
	}
	return nil
}
