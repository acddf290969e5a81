// Package cache provides an in-memory LRU cache with per-entry TTL,
// used by the store to bound staleness of facet lookups.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config configures a Cache.
type Config struct {
	// MaxItems caps the number of entries (default 1000).
	MaxItems int
	// DefaultTTL applies when Set is called with ttl <= 0 (default 5m).
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept (default 1m).
	CleanupInterval time.Duration
}

// Cache is an LRU cache with TTL expiration and background cleanup.
type Cache struct {
	mu         sync.Mutex
	maxItems   int
	defaultTTL time.Duration
	entries    map[string]*entry
	order      *list.List

	done chan struct{}
	wg   sync.WaitGroup
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// New creates a cache and starts its cleanup goroutine.
func New(cfg Config) *Cache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	c := &Cache{
		maxItems:   cfg.MaxItems,
		defaultTTL: cfg.DefaultTTL,
		entries:    make(map[string]*entry),
		order:      list.New(),
		done:       make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(cfg.CleanupInterval)

	return c
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	close(c.done)
	c.wg.Wait()
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.remove(e)
		return nil, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores value under key. A non-positive ttl uses the default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.maxItems {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest.Value.(*entry))
	}

	e := &entry{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Delete removes the entry for key. Used for explicit invalidation.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(e)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
}

// Size returns the number of live entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *Cache) remove(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *Cache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*entry
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.remove(e)
	}
}
