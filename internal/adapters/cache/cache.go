package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/okian/lodge/pkg/metrics"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// Entry is a cached value with the time it was stored and how long it lives.
type Entry struct {
	Data       any
	InsertedAt time.Time
	TTL        time.Duration
}

// Expired reports whether the entry is no longer valid at now.
// An entry is valid while now-InsertedAt < TTL.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) >= e.TTL
}

// Cache is a mutex-guarded map of keyed entries. Expiry is lazy: an expired
// entry is removed by the read that finds it; nothing sweeps in the background.
//
// The epoch counts invalidations. A writer that read the epoch before a slow
// fetch stores its result with SetIfEpoch so it cannot overwrite data
// written after a Clear or Advance.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]Entry
	epoch      uint64
	defaultTTL time.Duration
	now        func() time.Time
	metrics    bool
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]Entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
		metrics:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key when it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && e.Expired(c.now()) {
		delete(c.entries, key)
		c.updateGauge()
		ok = false
	}
	if c.metrics {
		if ok {
			metrics.RecordCacheHit(key)
		} else {
			metrics.RecordCacheMiss(key)
		}
	}
	if !ok {
		return nil, false
	}
	return e.Data, true
}

// Set stores value under key. A non-positive ttl uses the default TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Data: value, InsertedAt: c.now(), TTL: ttl}
	c.updateGauge()
}

// SetIfEpoch stores value under key only while the cache is still at epoch.
// It reports whether the value was stored.
func (c *Cache) SetIfEpoch(key string, value any, ttl time.Duration, epoch uint64) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.entries[key] = Entry{Data: value, InsertedAt: c.now(), TTL: ttl}
	c.updateGauge()
	return true
}

// Epoch returns the current invalidation epoch.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Advance moves to a new epoch without dropping entries and returns it.
func (c *Cache) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.epoch
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.updateGauge()
}

// Clear removes every entry and advances the epoch.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]Entry)
	c.updateGauge()
}

// Len returns the number of stored entries, expired ones included until
// they are read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// caller holds c.mu.
func (c *Cache) updateGauge() {
	if c.metrics {
		metrics.UpdateCacheEntries(len(c.entries))
	}
}

// GetAs returns the value under key asserted to T. A live value of another
// type is reported as ErrTypeMismatch and treated as a miss by callers.
func GetAs[T any](c *Cache, key string) (T, bool, error) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, key, v)
	}
	return t, true, nil
}
