package firms

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
)

// CachedSource wraps a FireSource with an in-memory LRU cache keyed by
// country and day window, so repeated map loads do not hammer the FIRMS API.
type CachedSource struct {
	inner   domain.FireSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a fire source.
func NewCachedSource(inner domain.FireSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) ActiveFires(ctx context.Context, country string, days int) ([]domain.FireDetection, error) {
	key := fmt.Sprintf("%s|%d", country, days)
	if detections, ok := c.cache.get(key); ok {
		c.metrics.FirmsCache.WithLabelValues("hit").Inc()
		return detections, nil
	}
	c.metrics.FirmsCache.WithLabelValues("miss").Inc()

	detections, err := c.inner.ActiveFires(ctx, country, days)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient empty feeds can be retried.
	if len(detections) > 0 {
		c.cache.put(key, detections)
	}
	return detections, nil
}

// lruCache is a simple thread-safe LRU cache for detection lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.FireDetection
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.FireDetection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.FireDetection) {
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
