package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/treetagger/pkg/adapters/memory"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunResultCacheContract(t, memory.NewCache(0))
}

func TestMemoryCache_Eviction(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache(2)
	entry := []domain.TaggedToken{{PrimaryRecord: domain.PrimaryRecord{Token: "a", Tag: "DT", Lemma: "a"}}}

	require.NoError(t, cache.Put(ctx, "one", entry))
	require.NoError(t, cache.Put(ctx, "two", entry))
	require.NoError(t, cache.Put(ctx, "two", entry))
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Put(ctx, "three", entry))
	assert.Equal(t, 2, cache.Len())

	_, ok, _ := cache.Get(ctx, "one")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok, _ = cache.Get(ctx, "three")
	assert.True(t, ok)
}
