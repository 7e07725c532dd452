package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickledCache_PutGet(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(1024)

	payload := []byte("pickled-component-bytes")
	c.Put(42, payload)

	got, ok := c.Get(42)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestPickledCache_Miss(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(1024)

	got, ok := c.Get(999)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestPickledCache_PutDetachesFromCaller(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(1024)

	payload := []byte("original")
	c.Put(1, payload)

	payload[0] = 'X'

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "original", string(got))
}

func TestPickledCache_RejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(4)

	c.Put(1, []byte("way too big for four bytes"))

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestPickledCache_EvictsUnderPressure(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(10)

	c.Put(1, []byte("aaaaa")) // 5 bytes
	c.Put(2, []byte("bbbbb")) // 5 bytes, cache now full at 10 bytes

	// Access entry 1 repeatedly so it looks more valuable than entry 2.
	for range 5 {
		c.Get(1)
	}

	c.Put(3, []byte("ccccc")) // forces an eviction

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, int64(10))

	_, ok := c.Get(1)
	assert.True(t, ok, "frequently accessed entry should survive eviction")
}

func TestPickledCache_Clear(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(1024)
	c.Put(1, []byte("a"))
	c.Put(2, []byte("b"))

	c.Clear()

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(0), stats.CurrentSize)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestPickledCache_StatsAndHitRate(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(1024)
	c.Put(1, []byte("a"))

	c.Get(1) // hit
	c.Get(2) // miss

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestPickledCache_CacheStatsProviderInterface(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(1024)
	c.Put(1, []byte("a"))
	c.Get(1)
	c.Get(2)

	assert.Equal(t, int64(1), c.CacheHits())
	assert.Equal(t, int64(1), c.CacheMisses())
}

func TestPickledCache_NilMaxSizeUsesDefault(t *testing.T) {
	t.Parallel()

	c := NewPickledCache(0)
	assert.Equal(t, int64(DefaultPickledCacheSize), c.maxSize)
}

func TestLRUStats_HitRateNoSamples(t *testing.T) {
	t.Parallel()

	var stats LRUStats
	assert.Equal(t, 0.0, stats.HitRate())
}
