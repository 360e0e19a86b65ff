package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/treetagger/pkg/adapters/redis"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, opts ...redis.Option) (*redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	cache := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestRedisCache_Contract(t *testing.T) {
	cache, _ := newCache(t)
	ports.RunResultCacheContract(t, cache)
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))

	entry := []domain.TaggedToken{{PrimaryRecord: domain.PrimaryRecord{Token: "is", Tag: "VBZ", Lemma: "be"}}}
	require.NoError(t, cache.Put(ctx, "k", entry))
	assert.True(t, mr.Exists("test:k"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	cache, mr := newCache(t)
	require.NoError(t, mr.Set("treetagger:result:bad", "{not json"))

	_, _, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisCache_Unavailable(t *testing.T) {
	cache, mr := newCache(t)
	mr.Close()

	_, _, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, cache.Ping(context.Background()))
}

func TestRedisCache_NewFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := redis.NewFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer cache.Close()
	assert.NoError(t, cache.Ping(context.Background()))

	_, err = redis.NewFromURL("://bad")
	assert.Error(t, err)
}
