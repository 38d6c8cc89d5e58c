package retrieval

import (
	"container/list"
	"sync"

	"github.com/ternarybob/livewire/internal/models"
)

// queryCache is a bounded FIFO cache keyed by (query, k). Eviction is
// oldest-first; the whole cache is purged when the corpus is reloaded.
// Safe for concurrent use.
type queryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]models.RetrievalResult
	order    *list.List // front = oldest
}

func newQueryCache(capacity int) *queryCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &queryCache{
		capacity: capacity,
		entries:  make(map[string][]models.RetrievalResult),
		order:    list.New(),
	}
}

func (c *queryCache) get(key string) ([]models.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results, ok := c.entries[key]
	return results, ok
}

func (c *queryCache) put(key string, results []models.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = results
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(string))
		}
	}

	c.entries[key] = results
	c.order.PushBack(key)
}

func (c *queryCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]models.RetrievalResult)
	c.order.Init()
}

func (c *queryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
