package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load builds the config: defaults, then the TOML file named by -config or
// TASKFLOW_CONFIG, then environment, then flags that were set explicitly.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	return load(fs, args, os.LookupEnv)
}

func load(fs *flag.FlagSet, args []string, env LookupFunc) (*Config, error) {
	defaultPath, _ := env("TASKFLOW_CONFIG")

	var (
		path     = fs.String("config", defaultPath, "path to a TOML config file")
		addr     = fs.String("addr", "", "listen address (default :8080)")
		logLevel = fs.String("log-level", "", "debug|info|warn|error")
		driver   = fs.String("db-driver", "", "sqlite|postgres|mysql|memory")
		dsn      = fs.String("db-dsn", "", "database DSN")
		seed     = fs.Bool("seed", false, "reset the store to the sample tasks on startup")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Default()
	if *path != "" {
		if err := LoadFile(&cfg, *path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", *path, err)
		}
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "db-driver":
			cfg.Database.Driver = *driver
		case "db-dsn":
			cfg.Database.DSN = *dsn
		}
	})
	cfg.SeedOnStart = *seed
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadFile decodes a TOML file over cfg. Unknown keys are rejected.
func LoadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(cfg *Config, env LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := env(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("ADDR", &cfg.Addr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DB_DRIVER", &cfg.Database.Driver)
	str("DB_URL", &cfg.Database.DSN)
	str("SQLITE_PATH", &cfg.Database.Path)
	str("TRACING_EXPORTER", &cfg.Tracing.Exporter)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	str("OTEL_SERVICE_NAME", &cfg.Tracing.ServiceName)

	if v, ok := env("RATE_LIMIT_RPS"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	if v, ok := env("RATE_LIMIT_BURST"); ok && v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = burst
	}
	if v, ok := env("SEED_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_ENABLED: %w", err)
		}
		cfg.Seed.Enabled = enabled
	}
	return nil
}
