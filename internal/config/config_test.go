package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"option-pricer/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	// An empty directory yields the built-in defaults.
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pricing.DefaultSteps != 252 {
		t.Errorf("DefaultSteps = %d, want 252", cfg.Pricing.DefaultSteps)
	}
	if cfg.Pricing.DefaultPaths != 20000 {
		t.Errorf("DefaultPaths = %d, want 20000", cfg.Pricing.DefaultPaths)
	}
	if cfg.Server.Address != ":8000" {
		t.Errorf("Address = %q, want :8000", cfg.Server.Address)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.Server.RequestTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `[pricing]
default_steps = 500
workers = 4

[server]
address = ":9100"

[logging]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Pricing.DefaultSteps != 500 {
		t.Errorf("DefaultSteps = %d, want 500", cfg.Pricing.DefaultSteps)
	}
	if cfg.Pricing.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Pricing.Workers)
	}
	if cfg.Server.Address != ":9100" {
		t.Errorf("Address = %q, want :9100", cfg.Server.Address)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Pricing.DefaultPaths != 20000 {
		t.Errorf("DefaultPaths = %d, want 20000", cfg.Pricing.DefaultPaths)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	content := `[logging]
level = "verbose"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(dir); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("got %v, want ErrConfigInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Pricing: PricingConfig{DefaultSteps: 252, DefaultPaths: 20000, MaxSteps: 100000, MaxPaths: 10000000},
			Server:  ServerConfig{Address: ":8000", RequestTimeout: time.Second},
			Logging: LoggingConfig{Level: "info"},
		}
	}

	if err := func() error { c := base(); return c.Validate() }(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default steps", func(c *Config) { c.Pricing.DefaultSteps = 0 }},
		{"zero default paths", func(c *Config) { c.Pricing.DefaultPaths = 0 }},
		{"negative workers", func(c *Config) { c.Pricing.Workers = -1 }},
		{"max steps below default", func(c *Config) { c.Pricing.MaxSteps = 10 }},
		{"max paths below default", func(c *Config) { c.Pricing.MaxPaths = 10 }},
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, errors.ErrConfigInvalid) {
			t.Errorf("%s: got %v, want ErrConfigInvalid", tc.name, err)
		}
	}
}
