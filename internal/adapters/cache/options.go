// Package cache holds loaded content in memory with per-entry expiry.
package cache

import "time"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithDefaultTTL sets the TTL used when Set is called with a non-positive ttl.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock replaces time.Now, e.g. with a fake clock in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics enables or disables hit/miss metrics.
func WithMetrics(enabled bool) Option {
	return func(c *Cache) {
		c.metrics = enabled
	}
}
