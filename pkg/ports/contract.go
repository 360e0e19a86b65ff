package ports

import (
	"context"
	"testing"

	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultCacheContract runs a suite of tests to verify that a ResultCache implementation
// adheres to the defined interface contract.
func RunResultCacheContract(t *testing.T, cache ResultCache) {
	ctx := context.Background()
	key := CacheKey("english.par", true, 0.1, []string{"lead", "."})
	results := []domain.TaggedToken{
		{
			PrimaryRecord: domain.PrimaryRecord{Token: "lead", Tag: "NN", Lemma: "lead"},
			Probabilities: []domain.ProbabilityRecord{
				{Tag: "NN", Lemma: "lead", Probability: 0.647454},
				{Tag: "VV", Lemma: "lead", Probability: 0.196787},
			},
		},
		{PrimaryRecord: domain.PrimaryRecord{Token: ".", Tag: "SENT", Lemma: "."}},
	}

	t.Run("Get Miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "missing-"+key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, results))

		got, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, results, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		other := CacheKey("english.par", false, 0, []string{"This"})
		require.NoError(t, cache.Put(ctx, other, results[:1]))
		require.NoError(t, cache.Put(ctx, other, results[1:]))

		got, ok, err := cache.Get(ctx, other)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, results[1:], got)
	})

	t.Run("Isolation", func(t *testing.T) {
		got, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		got[0].Tag = "XX"
		got[0].Probabilities[0].Tag = "XX"

		again, _, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "NN", again[0].Tag, "mutating returned results must not change the cache")
		assert.Equal(t, "NN", again[0].Probabilities[0].Tag)
	})
}
