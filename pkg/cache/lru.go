// Package cache provides a bounded, size-aware LRU cache for serialized
// component state, so a namespace engine doesn't re-run an unchanged
// component's PICKLED-stage encode when the only thing that moved since the
// last commit is an unrelated name.
package cache

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// DefaultPickledCacheSize is the default maximum memory size for the
// pickled-state cache (256 MB).
const DefaultPickledCacheSize = 256 * 1024 * 1024

// bytesPerKB is the number of bytes in a kilobyte.
const bytesPerKB = 1024.0

// PickledCache provides a cross-commit LRU cache for a component's encoded
// byte payload, keyed by the content digest internal/changedetector computed
// for it at the PICKLED stage. It tracks memory usage and evicts
// least-recently-used entries when the limit is exceeded.
type PickledCache struct {
	mu          sync.RWMutex
	entries     map[uint64]*lruEntry
	head        *lruEntry // Most recently used.
	tail        *lruEntry // Least recently used.
	maxSize     int64
	currentSize int64

	// Metrics (atomic for lock-free reads).
	hits   atomic.Int64
	misses atomic.Int64
}

// lruEntry is a doubly-linked list node for LRU tracking.
type lruEntry struct {
	digest      uint64
	payload     []byte
	size        int64
	accessCount int64 // Number of times this entry has been accessed.
	prev        *lruEntry
	next        *lruEntry
}

// evictionCost calculates the cost of evicting this entry.
// Higher cost = less desirable to evict.
// Cost = AccessCount / Size (normalized) - we want to evict large, rarely-accessed items first.
func (e *lruEntry) evictionCost() float64 {
	if e.size == 0 {
		return float64(e.accessCount)
	}

	// Normalize size to KB to avoid tiny fractions.
	sizeKB := float64(e.size) / bytesPerKB
	if sizeKB < 1 {
		sizeKB = 1
	}

	return float64(e.accessCount) / sizeKB
}

// NewPickledCache creates a new pickled-state cache with the specified
// maximum size in bytes.
func NewPickledCache(maxSize int64) *PickledCache {
	if maxSize <= 0 {
		maxSize = DefaultPickledCacheSize
	}

	return &PickledCache{
		entries: make(map[uint64]*lruEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a component's encoded payload from the cache by digest.
// Returns nil, false if not found.
func (c *PickledCache) Get(digest uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[digest]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)

	entry.accessCount++
	c.moveToFront(entry)

	return entry.payload, true
}

// Put adds an encoded payload to the cache under digest. If the cache
// exceeds maxSize, entries are evicted using size-aware eviction (large,
// infrequently accessed items evicted first).
func (c *PickledCache) Put(digest uint64, payload []byte) {
	if payload == nil {
		return
	}

	payloadSize := int64(len(payload))

	// Don't cache payloads larger than the entire cache.
	if payloadSize > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if already exists.
	if entry, ok := c.entries[digest]; ok {
		entry.accessCount++
		c.moveToFront(entry)

		return
	}

	// Evict entries until we have room using size-aware eviction.
	for c.currentSize+payloadSize > c.maxSize && c.tail != nil {
		c.evictLowestCost()
	}

	// Clone the payload to detach it from any caller-owned buffer.
	safePayload := bytes.Clone(payload)

	entry := &lruEntry{
		digest:      digest,
		payload:     safePayload,
		size:        payloadSize,
		accessCount: 1,
	}

	c.entries[digest] = entry
	c.currentSize += payloadSize
	c.addToFront(entry)
}

// Stats returns cache performance metrics. observability.CacheStatsProvider
// is implemented by CacheHits/CacheMisses below, not by Stats.
func (c *PickledCache) Stats() LRUStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return LRUStats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxSize:     c.maxSize,
	}
}

// CacheHits implements observability.CacheStatsProvider.
func (c *PickledCache) CacheHits() int64 {
	return c.hits.Load()
}

// CacheMisses implements observability.CacheStatsProvider.
func (c *PickledCache) CacheMisses() int64 {
	return c.misses.Load()
}

// LRUStats holds cache performance metrics.
type LRUStats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s LRUStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Clear removes all entries from the cache.
func (c *PickledCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*lruEntry)
	c.head = nil
	c.tail = nil
	c.currentSize = 0
}

// moveToFront moves an entry to the front of the LRU list (most recently used).
func (c *PickledCache) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

// addToFront adds an entry to the front of the LRU list.
func (c *PickledCache) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

// removeFromList removes an entry from the LRU list.
func (c *PickledCache) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

// evictionSampleSize is the number of LRU candidates to sample for size-aware eviction.
// Sampling reduces O(n) scan to O(k) where k is constant.
const evictionSampleSize = 5

// evictLowestCost removes the entry with the lowest eviction cost from the LRU tail region.
// This implements size-aware eviction: large, infrequently accessed items are evicted first.
// We sample up to evictionSampleSize entries from the tail to avoid O(n) scans.
func (c *PickledCache) evictLowestCost() {
	if c.tail == nil {
		return
	}

	// Sample candidates from the tail (LRU region).
	var candidates [evictionSampleSize]*lruEntry

	count := 0
	entry := c.tail

	for entry != nil && count < evictionSampleSize {
		candidates[count] = entry
		count++
		entry = entry.prev
	}

	if count == 0 {
		return
	}

	// Find the entry with lowest eviction cost (large size, low access count).
	victim := candidates[0]
	lowestCost := victim.evictionCost()

	for i := 1; i < count; i++ {
		cost := candidates[i].evictionCost()
		if cost < lowestCost {
			lowestCost = cost
			victim = candidates[i]
		}
	}

	// Evict the victim.
	c.removeFromList(victim)
	delete(c.entries, victim.digest)
	c.currentSize -= victim.size
}
