// internal/domain/cart/cache.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cached document exists
var ErrCacheMiss = errors.New("cache miss")

// Cache holds recently loaded documents
type Cache interface {
	Get(ctx context.Context, userID uint) (*Document, error)
	// Set stores doc unless the cache already holds a higher version.
	Set(ctx context.Context, userID uint, doc *Document) error
	Delete(ctx context.Context, userID uint) error
}

// setIfNotOlder writes ARGV[1] unless the cached document carries a version
// above ARGV[2]
var setIfNotOlder = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local ok, cached = pcall(cjson.decode, current)
	if ok and type(cached) == 'table' and tonumber(cached.version) and tonumber(cached.version) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[3])
return 1
`)

// RedisCache caches documents as JSON with a jittered TTL
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCache creates a cache with a 15 minute base TTL and up to 4 minutes of jitter
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
		jitter:  4 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID uint) (*Document, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &doc, nil
}

func (r *RedisCache) Set(ctx context.Context, userID uint, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL
	if r.jitter > 0 {
		ttl += time.Duration(rand.Int64N(int64(r.jitter/time.Minute)+1)) * time.Minute
	}
	args := []any{data, doc.Version, int64(ttl / time.Second)}
	if err := setIfNotOlder.Run(ctx, r.client, []string{cacheKey(userID)}, args...).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID uint) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}
