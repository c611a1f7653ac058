package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	doc := &Document{
		UserID:    7,
		Entries:   []Entry{{ProductID: 1, Quantity: 2, Variant: Variant{"size": "M"}, AddedAt: now, UpdatedAt: now}},
		Wishlist:  []uint{3},
		Version:   4,
		UpdatedAt: now,
	}
	require.NoError(t, cache.Set(ctx, 7, doc))
	assert.True(t, mr.Exists("cart:7"))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, doc.Entries, got.Entries)
	assert.Equal(t, int64(4), got.Version)
}

func TestRedisCache_TTLHasJitter(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, cache.Set(context.Background(), 7, &Document{UserID: 7}))

	ttl := mr.TTL("cart:7")
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.LessOrEqual(t, ttl, 19*time.Minute)

	mr.FastForward(20 * time.Minute)
	_, err := cache.Get(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_MissAndDelete(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, 1, &Document{UserID: 1}))
	require.NoError(t, cache.Delete(ctx, 1))
	_, err = cache.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_BackendError(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.SetError("LOADING")

	_, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_KeepsNewerVersion(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 7, &Document{UserID: 7, Version: 5, Entries: []Entry{{ProductID: 1, Quantity: 2}}}))
	require.NoError(t, cache.Set(ctx, 7, &Document{UserID: 7, Version: 4}))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Version)
	assert.Len(t, got.Entries, 1)

	require.NoError(t, cache.Set(ctx, 7, &Document{UserID: 7, Version: 6}))
	got, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Version)
	assert.Empty(t, got.Entries)
	assert.Greater(t, mr.TTL("cart:7"), time.Duration(0))
}

func TestRedisCache_ReplacesUnreadableEntry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("cart:7", "not json"))

	require.NoError(t, cache.Set(ctx, 7, &Document{UserID: 7, Version: 1}))
	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}
