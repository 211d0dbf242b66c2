package sounding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/hail-retrieval-service/internal/observability"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// CachedProvider wraps a SoundingProvider with an in-memory LRU cache.
// Isotherm heights drift on the scale of hours, so lookups are bucketed to
// the hour: consecutive volumes from the same site hit the cache instead of
// the sounding API.
type CachedProvider struct {
	inner   radar.SoundingProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a sounding provider.
func NewCachedProvider(inner radar.SoundingProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) IsothermLevels(ctx context.Context, lat, lon float64, at time.Time) (radar.Levels, error) {
	key := fmt.Sprintf("%.2f|%.2f|%s", lat, lon, at.UTC().Truncate(time.Hour).Format(time.RFC3339))
	if levels, ok := c.cache.get(key); ok {
		c.metrics.SoundingCache.WithLabelValues("hit").Inc()
		return levels, nil
	}
	c.metrics.SoundingCache.WithLabelValues("miss").Inc()

	levels, err := c.inner.IsothermLevels(ctx, lat, lon, at)
	if err != nil {
		return levels, err
	}
	c.cache.put(key, levels)
	return levels, nil
}

// lruCache is a simple thread-safe LRU cache for sounding levels.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value radar.Levels
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (radar.Levels, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return radar.Levels{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value radar.Levels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
