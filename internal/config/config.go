// Package config loads the lodge service configuration.
package config

import (
	"time"
)

// Defaults used by New.
const (
	DefaultAddr                  = ":9080"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
	DefaultCacheTTL              = 5 * time.Minute
	DefaultMaxRetries            = 3
	DefaultRetryBaseDelay        = time.Second
	DefaultMinRealRecords        = 2
	DefaultExcerptLength         = 150
	DefaultRecurrenceHorizonDays = 90
	DefaultTimezone              = "UTC"
	DefaultCalendarName          = "Lodge Events"
)

// Config holds all runtime settings for the lodge service.
type Config struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	Addr      string `koanf:"addr"`

	// ContentDir points at a directory with events/, gamemasters/ and news/.
	// Empty means the embedded seed content.
	ContentDir string `koanf:"content_dir"`

	CacheTTL       time.Duration `koanf:"cache_ttl"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	MinRealRecords int           `koanf:"min_real_records"`
	ExcerptLength  int           `koanf:"excerpt_length"`

	// RefreshCron is a standard five-field cron spec; empty disables scheduled refresh.
	RefreshCron           string `koanf:"refresh_cron"`
	RecurrenceHorizonDays int    `koanf:"recurrence_horizon_days"`
	Timezone              string `koanf:"timezone"`
	CalendarName          string `koanf:"calendar_name"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              DefaultLogLevel,
		LogFormat:             DefaultLogFormat,
		Addr:                  DefaultAddr,
		CacheTTL:              DefaultCacheTTL,
		MaxRetries:            DefaultMaxRetries,
		RetryBaseDelay:        DefaultRetryBaseDelay,
		MinRealRecords:        DefaultMinRealRecords,
		ExcerptLength:         DefaultExcerptLength,
		RecurrenceHorizonDays: DefaultRecurrenceHorizonDays,
		Timezone:              DefaultTimezone,
		CalendarName:          DefaultCalendarName,
	}
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
