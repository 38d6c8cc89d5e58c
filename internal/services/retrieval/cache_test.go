package retrieval

import (
	"fmt"
	"testing"

	"github.com/ternarybob/livewire/internal/models"
)

func TestQueryCache(t *testing.T) {
	t.Run("Put then get returns the stored results", func(t *testing.T) {
		c := newQueryCache(4)
		stored := []models.RetrievalResult{{ChunkID: "chunk_a", Score: 0.1}}

		c.put("price|3", stored)

		got, ok := c.get("price|3")
		if !ok {
			t.Fatal("Expected cache hit")
		}
		if len(got) != 1 || got[0].ChunkID != "chunk_a" {
			t.Errorf("Unexpected cached value: %v", got)
		}
	})

	t.Run("Eviction removes the oldest entry first", func(t *testing.T) {
		c := newQueryCache(2)
		c.put("first|3", nil)
		c.put("second|3", nil)
		c.put("third|3", nil)

		if _, ok := c.get("first|3"); ok {
			t.Error("Oldest entry should have been evicted")
		}
		if _, ok := c.get("second|3"); !ok {
			t.Error("Second entry should survive")
		}
		if c.len() != 2 {
			t.Errorf("Expected 2 entries, got %d", c.len())
		}
	})

	t.Run("Overwriting an existing key does not grow the cache", func(t *testing.T) {
		c := newQueryCache(2)
		c.put("query|3", []models.RetrievalResult{{ChunkID: "chunk_old"}})
		c.put("query|3", []models.RetrievalResult{{ChunkID: "chunk_new"}})

		if c.len() != 1 {
			t.Errorf("Expected 1 entry, got %d", c.len())
		}
		got, _ := c.get("query|3")
		if len(got) != 1 || got[0].ChunkID != "chunk_new" {
			t.Errorf("Expected updated value, got %v", got)
		}
	})

	t.Run("Purge empties the cache", func(t *testing.T) {
		c := newQueryCache(8)
		for i := 0; i < 5; i++ {
			c.put(fmt.Sprintf("query-%d|3", i), nil)
		}

		c.purge()

		if c.len() != 0 {
			t.Errorf("Expected empty cache after purge, got %d entries", c.len())
		}
	})

	t.Run("Non-positive capacity falls back to the default", func(t *testing.T) {
		c := newQueryCache(0)
		if c.capacity != 128 {
			t.Errorf("Expected default capacity 128, got %d", c.capacity)
		}
	})
}
