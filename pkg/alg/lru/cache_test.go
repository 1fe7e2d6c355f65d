package lru_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/alg/lru"
)

const (
	// testMaxEntries is the default max entries for basic tests.
	testMaxEntries = 100

	// smallMaxEntries limits the cache to 3 entries for eviction tests.
	smallMaxEntries = 3

	// testConcurrentGoroutines is the number of goroutines for concurrency tests.
	testConcurrentGoroutines = 50

	// testConcurrentOps is the number of operations per goroutine.
	testConcurrentOps = 100
)

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, string](testMaxEntries))

	got, found := cache.Get(1)
	assert.False(t, found)
	assert.Empty(t, got)

	cache.Put(1, "hello")

	got, found = cache.Get(1)
	require.True(t, found)
	assert.Equal(t, "hello", got)

	cache.Put(1, "world")

	got, _ = cache.Get(1)
	assert.Equal(t, "world", got)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, string](smallMaxEntries))

	cache.Put(1, "a")
	cache.Put(2, "b")
	cache.Put(3, "c")

	// Touch 1 so 2 becomes the eviction victim.
	_, found := cache.Get(1)
	require.True(t, found)

	cache.Put(4, "d")

	assert.Equal(t, smallMaxEntries, cache.Len())
	assert.True(t, cache.Contains(1))
	assert.False(t, cache.Contains(2))
	assert.True(t, cache.Contains(3))
	assert.True(t, cache.Contains(4))
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[string, int](1))

	cache.Put("a", 1)
	cache.Get("a")
	cache.Get("b")
	cache.Put("b", 2)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.MaxEntries)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
	assert.Zero(t, lru.Stats{}.HitRate())
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, int](testMaxEntries))
	cache.Put(1, 1)
	cache.Clear()

	assert.Zero(t, cache.Len())
	assert.False(t, cache.Contains(1))
}

func TestCache_RequiresLimit(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { lru.New[int, int]() })
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, int](testMaxEntries))

	var wg sync.WaitGroup

	for g := range testConcurrentGoroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range testConcurrentOps {
				key := g*testConcurrentOps + i
				cache.Put(key, key)
				cache.Get(key)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), testMaxEntries)
}
