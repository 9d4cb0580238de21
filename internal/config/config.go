// Package config provides configuration management for the pricer.
//
// Every default the engine relies on (step counts, path counts, worker
// sizing) lives here and is passed explicitly at the call boundary;
// nothing reads module-level state.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"option-pricer/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Pricing PricingConfig `mapstructure:"pricing"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PricingConfig holds engine defaults and limits.
type PricingConfig struct {
	DefaultSteps int `mapstructure:"default_steps"`
	DefaultPaths int `mapstructure:"default_paths"`
	Workers      int `mapstructure:"workers"` // 0 means all CPUs
	MaxSteps     int `mapstructure:"max_steps"`
	MaxPaths     int `mapstructure:"max_paths"`
}

// ServerConfig holds the HTTP front-end configuration.
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "option-pricer")
}

// Load reads configuration from the given directory (or the default
// directory when empty), applying defaults for anything unset. A missing
// config file is not an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetDefault("pricing.default_steps", 252)
	v.SetDefault("pricing.default_paths", 20000)
	v.SetDefault("pricing.workers", 0)
	v.SetDefault("pricing.max_steps", 100000)
	v.SetDefault("pricing.max_paths", 10000000)
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(dir, "logs", "pricer.log"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Pricing.DefaultSteps < 1 {
		return errors.Wrapf(errors.ErrConfigInvalid, "pricing.default_steps must be >= 1, got %d", c.Pricing.DefaultSteps)
	}
	if c.Pricing.DefaultPaths < 1 {
		return errors.Wrapf(errors.ErrConfigInvalid, "pricing.default_paths must be >= 1, got %d", c.Pricing.DefaultPaths)
	}
	if c.Pricing.Workers < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "pricing.workers must be >= 0, got %d", c.Pricing.Workers)
	}
	if c.Pricing.MaxSteps < c.Pricing.DefaultSteps {
		return errors.Wrapf(errors.ErrConfigInvalid, "pricing.max_steps must be >= default_steps")
	}
	if c.Pricing.MaxPaths < c.Pricing.DefaultPaths {
		return errors.Wrapf(errors.ErrConfigInvalid, "pricing.max_paths must be >= default_paths")
	}
	if c.Server.Address == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "server.address must not be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "server.request_timeout must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
