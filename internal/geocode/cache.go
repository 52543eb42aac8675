package geocode

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
)

const (
	// DefaultCacheTTL is how long a resolution stays fresh. Addresses move
	// rarely; a day keeps upstream traffic low without serving stale data
	// for long.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultCacheSize is the entry count that triggers an expiry sweep.
	DefaultCacheSize = 1000
)

type cacheEntry struct {
	value     domain.GeocodeResult
	createdAt time.Time
}

// Cache is a bounded TTL cache for geocoding results. Expired entries read
// as absent but are only removed by the sweep that runs when a Put pushes
// the entry count over the maximum. This is opportunistic cleanup, not LRU:
// no entry is evicted merely for being cold. Get and Put never block beyond
// the mutex and never fail.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// CacheStats reports the current size and configured maximum.
type CacheStats struct {
	Size       int `json:"size"`
	MaxEntries int `json:"max_entries"`
}

// NewCache creates a Cache. Non-positive ttl or maxEntries fall back to the
// defaults; a nil clock uses real time.
func NewCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]cacheEntry),
	}
}

// Get returns the cached result for key, reporting a miss when no entry
// exists or the entry has outlived the TTL.
func (c *Cache) Get(key string) (domain.GeocodeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return domain.GeocodeResult{}, false
	}
	return e.value, true
}

// Put stores value under key, overwriting any existing entry and stamping
// the current time. When the cache grows past its maximum it sweeps out
// every expired entry.
func (c *Cache) Put(key string, value domain.GeocodeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, createdAt: c.clock.Now()}

	if len(c.entries) > c.maxEntries {
		for k, e := range c.entries {
			if c.expired(e) {
				delete(c.entries, k)
			}
		}
	}
}

// Clear empties the cache. Used for test isolation and operational resets.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats returns the current entry count and configured maximum.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: len(c.entries), MaxEntries: c.maxEntries}
}

func (c *Cache) expired(e cacheEntry) bool {
	return c.clock.Since(e.createdAt) > c.ttl
}

// coordKey rounds to 5 decimal places (~1.1 m) so near-duplicate coordinate
// lookups collapse to one entry.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("rev:%.5f,%.5f", lat, lon)
}

// addressKey is case-insensitive and whitespace-trimmed.
func addressKey(address string) string {
	return "fwd:" + strings.ToLower(strings.TrimSpace(address))
}
