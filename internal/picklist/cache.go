package picklist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"gridscout/internal/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores completed picklist results by request hash. Entries are
// immutable once set.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool)
	Set(ctx context.Context, key string, result *Result)
	Clear(ctx context.Context)
}

// memoryCache is a TTL map cache. It is always present; Redis layers under
// it when configured.
type memoryCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result  *Result
	expires time.Time
}

// NewMemoryCache creates an in-memory result cache.
func NewMemoryCache(ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

func (c *memoryCache) Set(_ context.Context, key string, result *Result) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{result: result, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *memoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}

// redisCache persists results across restarts. Failures degrade to cache
// misses; Redis being down never fails a generation.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed result cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisCache{client: client, ttl: ttl}
}

const redisKeyPrefix = "gridscout:picklist:"

func (c *redisCache) Get(ctx context.Context, key string) (*Result, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Get(logging.CategoryPicklist).Warn("redis get failed", zap.Error(err))
		}
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *redisCache) Set(ctx context.Context, key string, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		logging.Get(logging.CategoryPicklist).Warn("redis set failed", zap.Error(err))
	}
}

func (c *redisCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logging.Get(logging.CategoryPicklist).Warn("redis clear failed", zap.Error(err))
	}
}

// tieredCache reads through memory into a secondary backend and writes to
// both.
type tieredCache struct {
	primary   Cache
	secondary Cache
}

// NewTieredCache layers a fast primary over a persistent secondary.
func NewTieredCache(primary, secondary Cache) Cache {
	return &tieredCache{primary: primary, secondary: secondary}
}

func (c *tieredCache) Get(ctx context.Context, key string) (*Result, bool) {
	if result, ok := c.primary.Get(ctx, key); ok {
		return result, true
	}
	result, ok := c.secondary.Get(ctx, key)
	if ok {
		c.primary.Set(ctx, key, result)
	}
	return result, ok
}

func (c *tieredCache) Set(ctx context.Context, key string, result *Result) {
	c.primary.Set(ctx, key, result)
	c.secondary.Set(ctx, key, result)
}

func (c *tieredCache) Clear(ctx context.Context) {
	c.primary.Clear(ctx)
	c.secondary.Clear(ctx)
}
