package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Root.ConfiguredRoot != "" {
		t.Errorf("expected default configured root to be empty, got %q", cfg.Root.ConfiguredRoot)
	}
	if !cfg.Format.Enabled {
		t.Error("expected formatter to be enabled by default")
	}
	if cfg.Format.Binary != "forge" {
		t.Errorf("expected default formatter binary to be 'forge', got %q", cfg.Format.Binary)
	}
	if cfg.Format.TimeoutSeconds != 30 {
		t.Errorf("expected default formatter timeout to be 30s, got %d", cfg.Format.TimeoutSeconds)
	}
	if cfg.Walk.InputSuffix != ".presl" {
		t.Errorf("expected default input suffix to be '.presl', got %q", cfg.Walk.InputSuffix)
	}
	if cfg.Walk.OutputSuffix != ".post.sol" {
		t.Errorf("expected default output suffix to be '.post.sol', got %q", cfg.Walk.OutputSuffix)
	}
	if len(cfg.Walk.SkipMarkers) != 2 {
		t.Errorf("expected two default skip markers, got %v", cfg.Walk.SkipMarkers)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantError bool
		errorMsg  string
	}{
		{
			name:      "defaults are valid",
			config:    DefaultConfig(),
			wantError: false,
		},
		{
			name: "negative timeout rejected",
			config: &Config{
				Format: FormatConfig{Enabled: true, Binary: "forge", TimeoutSeconds: -1},
				Walk:   WalkConfig{InputSuffix: ".presl", OutputSuffix: ".post.sol"},
			},
			wantError: true,
			errorMsg:  "timeout_seconds",
		},
		{
			name: "negative concurrency rejected",
			config: &Config{
				Format: FormatConfig{Binary: "forge"},
				Walk:   WalkConfig{InputSuffix: ".presl", OutputSuffix: ".post.sol", Concurrency: -1},
			},
			wantError: true,
			errorMsg:  "concurrency",
		},
		{
			name: "empty input suffix rejected",
			config: &Config{
				Format: FormatConfig{Binary: "forge"},
				Walk:   WalkConfig{OutputSuffix: ".post.sol"},
			},
			wantError: true,
			errorMsg:  "input_suffix",
		},
		{
			name: "format enabled without binary rejected",
			config: &Config{
				Format: FormatConfig{Enabled: true},
				Walk:   WalkConfig{InputSuffix: ".presl", OutputSuffix: ".post.sol"},
			},
			wantError: true,
			errorMsg:  "format.binary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tt.wantError && !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errorMsg, err)
			}
		})
	}
}

func TestLoadAppliesProjectFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := "[format]\nbinary = \"solhint-fmt\"\n\n[walk]\nconcurrency = 4\n"
	if err := os.WriteFile(filepath.Join(dir, "yulimport.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Format.Binary != "solhint-fmt" {
		t.Errorf("expected project config to override formatter binary, got %q", cfg.Format.Binary)
	}
	if cfg.Walk.Concurrency != 4 {
		t.Errorf("expected project config to set concurrency, got %d", cfg.Walk.Concurrency)
	}
}

func TestLoadAppliesCLIOverridesOverProjectFile(t *testing.T) {
	dir := t.TempDir()
	toml := "[format]\nbinary = \"solhint-fmt\"\n"
	if err := os.WriteFile(filepath.Join(dir, "yulimport.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load(&Config{Format: FormatConfig{Binary: "forge-custom"}})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Format.Binary != "forge-custom" {
		t.Errorf("expected CLI override to win, got %q", cfg.Format.Binary)
	}
}
