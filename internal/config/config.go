// Package config loads server settings from defaults, an optional TOML
// file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Addr            string        `toml:"addr"`
	LogLevel        string        `toml:"log_level"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	Database  DatabaseConfig  `toml:"database"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Tracing   TracingConfig   `toml:"tracing"`
	CORS      CORSConfig      `toml:"cors"`
	Seed      SeedConfig      `toml:"seed"`

	// SeedOnStart resets the store to the sample tasks before serving.
	SeedOnStart bool `toml:"-"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite | postgres | mysql | memory
	DSN    string `toml:"dsn"`
	Path   string `toml:"path"` // sqlite file, ignored when DSN is set
}

type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

type TracingConfig struct {
	Exporter    string `toml:"exporter"` // "" | stdout | otlp
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

type SeedConfig struct {
	Enabled bool `toml:"enabled"`
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		RequestTimeout:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/tasks.db",
		},
		RateLimit: RateLimitConfig{Burst: 20},
		Tracing:   TracingConfig{ServiceName: "taskflow"},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		Seed:      SeedConfig{Enabled: true},
	}
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug|info|warn|error", c.LogLevel))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.DSN == "" && c.Database.Path == "" {
			errs = append(errs, errors.New("database.path or database.dsn is required for sqlite"))
		}
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for %s", c.Database.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite|postgres|mysql|memory", c.Database.Driver))
	}

	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}

	switch c.Tracing.Exporter {
	case "", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not one of stdout|otlp", c.Tracing.Exporter))
	}

	return errors.Join(errs...)
}
