package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New[string](0, time.Minute)
	assert.Error(t, err)

	_, err = New[string](10, 0)
	assert.Error(t, err)

	c, err := New[string](10, time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGetSet(t *testing.T) {
	c, err := New[int](4, time.Minute)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 42, 0)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 42, got)
	assert.True(t, c.Has("a"))
}

func TestExpiry(t *testing.T) {
	c, err := New[string](4, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", 10*time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(11 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must read as a miss")
	assert.Equal(t, 0, c.Len(), "expired entry dropped on access")
}

func TestHasDropsExpired(t *testing.T) {
	c, err := New[string](4, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Second)
	assert.True(t, c.Has("k"))

	now = now.Add(2 * time.Second)
	assert.False(t, c.Has("k"))
	assert.Equal(t, 0, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c, err := New[int](2, time.Minute)
	require.NoError(t, err)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3, 0)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, err := New[int](4, time.Minute)
	require.NoError(t, err)

	c.Set("a", 1, 0)
	c.Invalidate("a")
	assert.False(t, c.Has("a"))

	// Invalidating an absent key is a no-op.
	c.Invalidate("nope")
}

func TestLastWriteWins(t *testing.T) {
	c, err := New[int](4, time.Minute)
	require.NoError(t, err)

	c.Set("k", 1, 0)
	c.Set("k", 2, 0)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestConcurrentAccess(t *testing.T) {
	c, err := New[int](64, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%16)
				c.Set(key, n, 0)
				c.Get(key)
				c.Has(key)
			}
		}(i)
	}
	wg.Wait()
}
