package memory

import (
	"context"
	"sync"

	"github.com/aretw0/treetagger/pkg/domain"
)

// Cache implements ports.ResultCache in memory.
// Safe for concurrent use.
type Cache struct {
	data  map[string][]domain.TaggedToken
	order []string
	max   int
	mu    sync.RWMutex
}

// NewCache creates a new in-memory cache holding at most max entries.
// A max of zero or less means unbounded; the oldest entry is evicted first otherwise.
func NewCache(max int) *Cache {
	return &Cache{
		data: make(map[string][]domain.TaggedToken),
		max:  max,
	}
}

// Get returns a copy of the cached results.
func (c *Cache) Get(ctx context.Context, key string) ([]domain.TaggedToken, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(results), true, nil
}

// Put stores a copy of results.
func (c *Cache) Put(ctx context.Context, key string, results []domain.TaggedToken) error {
	copied := clone(results)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists {
		c.order = append(c.order, key)
	}
	c.data[key] = copied

	for c.max > 0 && len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.data, oldest)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func clone(results []domain.TaggedToken) []domain.TaggedToken {
	out := make([]domain.TaggedToken, len(results))
	for i, r := range results {
		out[i] = r
		if r.Probabilities != nil {
			out[i].Probabilities = append([]domain.ProbabilityRecord(nil), r.Probabilities...)
		}
	}
	return out
}
