package texture

import (
	"image"
	"sync"
)

// Cache holds decoded pixels keyed by file path.
type Cache struct {
	data map[string]*image.NRGBA
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*image.NRGBA),
	}
}

// Get retrieves decoded pixels from the cache.
func (c *Cache) Get(key string) (*image.NRGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pix, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return pix, ok
}

// Set stores decoded pixels.
func (c *Cache) Set(key string, pix *image.NRGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = pix
}

// Clear empties the cache and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*image.NRGBA)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
