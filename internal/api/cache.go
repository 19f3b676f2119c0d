package api

import (
	"sync"
	"sync/atomic"
	"time"
)

// ReportCache is a concurrent-safe LRU cache for rendered gap reports with
// TTL expiration. Keys embed the scoring-parameter hash, so a report is only
// reused for identical parameters and filters.
type ReportCache struct {
	mu         sync.Mutex
	entries    map[string]*reportEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
	now        func() time.Time
}

type reportEntry struct {
	data      []byte
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewReportCache creates a ReportCache. A non-positive maxEntries disables
// caching.
func NewReportCache(maxEntries int, ttl time.Duration) *ReportCache {
	return &ReportCache{
		entries:    make(map[string]*reportEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached report for key, or nil on miss or expiration.
func (c *ReportCache) Get(key string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry.data
}

// Put stores a report, evicting the least recently used entry when full.
func (c *ReportCache) Put(key string, data []byte) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeFromOrder(key)
	} else {
		for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}

	c.entries[key] = &reportEntry{data: data, createdAt: c.now()}
	c.order = append(c.order, key)
}

// Purge drops every entry. Called after indicators are recalculated.
func (c *ReportCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*reportEntry)
	c.order = nil
}

// Stats returns cache performance statistics.
func (c *ReportCache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *ReportCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
