package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(maxItems int, ttl time.Duration) *Cache {
	return New(Config{
		MaxItems:        maxItems,
		DefaultTTL:      ttl,
		CleanupInterval: time.Hour, // keep the sweeper out of the way
	})
}

func TestSetGet(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("authors", []string{"A", "B"}, 0)

	v, ok := c.Get("authors")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUEviction(t *testing.T) {
	c := newTestCache(3, time.Minute)
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0)
	}
	// Touch k0 so k1 becomes the eviction candidate.
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k3", 3, 0)

	_, ok = c.Get("k1")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("k0")
	assert.True(t, ok)
	assert.Equal(t, 3, c.Size())
}

func TestDeleteAndClear(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestSetUpdatesExisting(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("k", "v1", 0)
	c.Set("k", "v2", 0)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.Size())
}
