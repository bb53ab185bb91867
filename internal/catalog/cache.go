package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores successful search results. Misses return ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]Entry, bool, error)
	Set(ctx context.Context, key string, entries []Entry, ttl time.Duration) error
}

// CacheKey derives a stable cache key for a normalized query.
func CacheKey(q Query) string {
	q = q.Normalize()
	return fmt.Sprintf("aistudio:catalog:search:%s:%d:%d:%s", q.Sort, q.Page, q.PageSize, strings.ToLower(q.Text))
}

// RedisCache is a Cache backed by redis.
type RedisCache struct {
	rdb redis.UniversalClient
}

// NewRedisCache connects to addr. The connection is lazy; Ping verifies it.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(rdb redis.UniversalClient) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Entry, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decode cached entries: %w", err)
	}
	return entries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, entries []Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisCache) Close() error { return c.rdb.Close() }
