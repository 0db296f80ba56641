package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Environment knobs.
const (
	EnvPrefix     = "LODGE_"
	EnvConfigPath = "LODGE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LODGE_CONFIG is set
//  3. env (prefix LODGE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LODGE_CACHE_TTL -> cache_ttl; underscores are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// the file path itself is not a config key
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.CacheTTL <= 0:
		return invalid("cache_ttl must be positive")
	case c.MaxRetries < 0:
		return invalid("max_retries must not be negative")
	case c.RetryBaseDelay < 0:
		return invalid("retry_base_delay must not be negative")
	case c.MinRealRecords < 0:
		return invalid("min_real_records must not be negative")
	case c.ExcerptLength <= 0:
		return invalid("excerpt_length must be positive")
	case c.RecurrenceHorizonDays <= 0:
		return invalid("recurrence_horizon_days must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "text", "console", "json":
	default:
		return invalid("unknown log_format %q", c.LogFormat)
	}
	if _, err := c.Location(); err != nil {
		return invalid("unknown timezone %q", c.Timezone)
	}
	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			return invalid("refresh_cron: %v", err)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
