package locateintel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"jobfleet/internal/domain"
)

// MemoryCache is the required intra-run cache: write-once-per-key,
// concurrent readers of an already-populated key see the same value.
// Concurrent misses on the same key are allowed to both reach the LLM,
// matching the spec's accepted lock-free tradeoff.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]domain.Location
}

// NewMemoryCache constructs an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]domain.Location)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (domain.Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.m[key]
	return loc, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, loc domain.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; !exists {
		c.m[key] = loc
	}
}

// RedisCache is an optional second cache tier letting parsed locations
// survive across fleet runs, backed by the teacher's Redis dependency.
// It always consults an in-memory tier first to keep the common path
// lock-free and network-free.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	memory *MemoryCache
}

// NewRedisCache wraps client with a fronting in-memory tier. Network
// errors talking to Redis are treated as cache misses rather than fatal
// errors, since the location parser must always be able to fall through
// to the LLM or the deterministic fallback.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, memory: NewMemoryCache()}
}

func (c *RedisCache) Get(ctx context.Context, key string) (domain.Location, bool) {
	if loc, ok := c.memory.Get(ctx, key); ok {
		return loc, true
	}

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return domain.Location{}, false
	}

	var loc domain.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		return domain.Location{}, false
	}

	c.memory.Set(ctx, key, loc)
	return loc, true
}

func (c *RedisCache) Set(ctx context.Context, key string, loc domain.Location) {
	c.memory.Set(ctx, key, loc)

	payload, err := json.Marshal(loc)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}
