// Package cache provides an in-memory TTL cache for forecast results. All
// expiry decisions run through an injectable clock so tests control time,
// and expired entries are evicted lazily on read or through an explicit
// sweep.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a cached forecast stays fresh.
const DefaultTTL = 6 * time.Hour

// Options configures a Cache.
type Options struct {
	// TTL is the default entry lifetime, DefaultTTL when zero.
	TTL time.Duration

	// NowFunc supplies the clock, time.Now when nil.
	NowFunc func() time.Time
}

func NewDefaultOptions() *Options {
	return &Options{TTL: DefaultTTL}
}

type entry[V any] struct {
	value  V
	expiry time.Time
}

// Cache is a thread-safe in-memory key/value store with per-entry expiry.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	nowFunc func() time.Time
}

func New[V any](opt *Options) *Cache[V] {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	ttl := opt.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	nowFunc := opt.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		nowFunc: nowFunc,
	}
}

// Get returns the live value under key. An expired entry is evicted and
// reported as a miss. An entry is live strictly before its expiry instant.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.nowFunc().Before(e.expiry) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value under key with an explicit lifetime. A
// non-positive ttl stores an entry that is already expired.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:  value,
		expiry: c.nowFunc().Add(ttl),
	}
}

// Invalidate removes every entry whose key starts with prefix, expired or
// not, and returns how many were removed. An empty prefix clears the
// cache.
func (c *Cache[V]) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// CleanupExpired sweeps out every expired entry and returns how many were
// removed.
func (c *Cache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	var removed int
	for key, e := range c.entries {
		if !now.Before(e.expiry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats snapshots the cache occupancy without evicting anything.
type Stats struct {
	Total   int `json:"total_entries"`
	Active  int `json:"active_entries"`
	Expired int `json:"expired_entries"`
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	s := Stats{Total: len(c.entries)}
	for _, e := range c.entries {
		if now.Before(e.expiry) {
			s.Active++
		} else {
			s.Expired++
		}
	}
	return s
}
