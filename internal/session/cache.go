package session

import (
	"image"
	"sync"
)

// CacheStats reports page cache effectiveness.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Pages   int     `json:"pages"`
}

// pageCache keeps a fixed number of most-recently-used rendered page
// surfaces. Eviction is best-effort memory management: a miss simply
// re-renders from source.
type pageCache struct {
	mu      sync.Mutex
	max     int
	entries map[int]*image.RGBA
	order   []int // least recent first
	hits    int64
	misses  int64
}

func newPageCache(max int) *pageCache {
	if max < 1 {
		max = 1
	}
	return &pageCache{
		max:     max,
		entries: make(map[int]*image.RGBA),
	}
}

func (c *pageCache) get(page int) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	surface, ok := c.entries[page]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.touch(page)
	return surface, true
}

func (c *pageCache) put(page int, surface *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[page]; ok {
		c.entries[page] = surface
		c.touch(page)
		return
	}
	for len(c.entries) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[page] = surface
	c.order = append(c.order, page)
}

// touch moves page to the most-recent end. Caller holds the lock.
func (c *pageCache) touch(page int) {
	for i, p := range c.order {
		if p == page {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, page)
}

func (c *pageCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*image.RGBA)
	c.order = nil
}

func (c *pageCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := CacheStats{Hits: c.hits, Misses: c.misses, Pages: len(c.entries)}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
