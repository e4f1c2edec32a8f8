package game

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// SpriteKey identifies a pre-rendered resource. Content is NFC-normalised
// so visually identical names share one entry.
type SpriteKey struct {
	Content string
	Size    int
}

func NewSpriteKey(content string, size int) SpriteKey {
	return SpriteKey{Content: norm.NFC.String(content), Size: size}
}

type spriteEntry[V any] struct {
	value V
	atime uint64
}

// SpriteCache is a bounded LRU of pre-rendered resources.
//
// SpriteCache is safe for concurrent use.
type SpriteCache[V any] struct {
	mu      sync.Mutex
	entries map[SpriteKey]*spriteEntry[V]
	limit   int
	tick    uint64

	hits, misses, evictions uint64
	onEvict                 func(SpriteKey, V)
}

// NewSpriteCache returns a cache holding at most limit entries.
// A non-positive limit uses SpriteCacheSize.
func NewSpriteCache[V any](limit int) *SpriteCache[V] {
	if limit <= 0 {
		limit = SpriteCacheSize
	}
	return &SpriteCache[V]{
		entries: make(map[SpriteKey]*spriteEntry[V], limit),
		limit:   limit,
	}
}

// OnEvict registers fn to release evicted values (GPU textures and the like).
func (c *SpriteCache[V]) OnEvict(fn func(SpriteKey, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

func (c *SpriteCache[V]) Get(content string, size int) (V, bool) {
	k := NewSpriteKey(content, size)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// GetOrCreate returns the cached value or renders it with create.
func (c *SpriteCache[V]) GetOrCreate(content string, size int, create func(SpriteKey) V) V {
	k := NewSpriteKey(content, size)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	if e, ok := c.entries[k]; ok {
		c.hits++
		e.atime = c.tick
		return e.value
	}
	c.misses++
	v := create(k)
	c.entries[k] = &spriteEntry[V]{value: v, atime: c.tick}
	if len(c.entries) > c.limit {
		c.evictOldest()
	}
	return v
}

// evictOldest drops the least recently used entry. Caller holds c.mu.
func (c *SpriteCache[V]) evictOldest() {
	var (
		oldest SpriteKey
		atime  uint64
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.atime < atime {
			oldest, atime, found = k, e.atime, true
		}
	}
	if !found {
		return
	}
	e := c.entries[oldest]
	delete(c.entries, oldest)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(oldest, e.value)
	}
}

func (c *SpriteCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onEvict != nil {
		for k, e := range c.entries {
			c.onEvict(k, e.value)
		}
	}
	clear(c.entries)
	c.tick = 0
}

func (c *SpriteCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *SpriteCache[V]) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit
}

// SetLimit resizes the cache, evicting least recently used entries if needed.
func (c *SpriteCache[V]) SetLimit(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = n
	for len(c.entries) > c.limit {
		c.evictOldest()
	}
}

type CacheStats struct {
	Hits, Misses, Evictions uint64
}

// HitRate is hits over lookups, 0 before the first lookup.
func (s CacheStats) HitRate() float64 {
	n := s.Hits + s.Misses
	if n == 0 {
		return 0
	}
	return float64(s.Hits) / float64(n)
}

func (c *SpriteCache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}
