package api

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportCache_BasicGetPut(t *testing.T) {
	cache := NewReportCache(10, time.Hour)

	assert.Nil(t, cache.Get("json|abc"))

	cache.Put("json|abc", []byte("report"))
	assert.Equal(t, []byte("report"), cache.Get("json|abc"))
	assert.Nil(t, cache.Get("json|abd"))
}

func TestReportCache_TTLExpiration(t *testing.T) {
	cache := NewReportCache(10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Put("k", []byte("v"))
	assert.NotNil(t, cache.Get("k"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, cache.Get("k"))

	cache.mu.Lock()
	_, exists := cache.entries["k"]
	cache.mu.Unlock()
	assert.False(t, exists)
}

func TestReportCache_LRUEviction(t *testing.T) {
	cache := NewReportCache(3, time.Hour)

	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("2"))
	cache.Put("c", []byte("3"))

	// Touch "a" so "b" becomes the oldest.
	assert.NotNil(t, cache.Get("a"))
	cache.Put("d", []byte("4"))

	assert.Nil(t, cache.Get("b"))
	assert.NotNil(t, cache.Get("a"))
	assert.NotNil(t, cache.Get("c"))
	assert.NotNil(t, cache.Get("d"))
}

func TestReportCache_OverwriteDoesNotEvict(t *testing.T) {
	cache := NewReportCache(2, time.Hour)

	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("2"))
	cache.Put("a", []byte("updated"))

	assert.Equal(t, []byte("updated"), cache.Get("a"))
	assert.NotNil(t, cache.Get("b"))
	assert.Equal(t, 2, cache.Stats().Entries)
}

func TestReportCache_Purge(t *testing.T) {
	cache := NewReportCache(10, time.Hour)
	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("2"))

	cache.Purge()

	assert.Nil(t, cache.Get("a"))
	assert.Nil(t, cache.Get("b"))
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestReportCache_Disabled(t *testing.T) {
	cache := NewReportCache(0, time.Hour)
	cache.Put("a", []byte("1"))
	assert.Nil(t, cache.Get("a"))
}

func TestReportCache_Stats(t *testing.T) {
	cache := NewReportCache(5, time.Hour)
	cache.Put("a", []byte("1"))

	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 5, stats.MaxEntries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestReportCache_Concurrent(t *testing.T) {
	cache := NewReportCache(50, time.Hour)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d", (i+j)%80)
				cache.Put(key, []byte(key))
				cache.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Stats().Entries, 50)
}
