package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cusspwk/cuss/internal/model"
)

// FormStore is the authoritative source of the form registry.
type FormStore interface {
	ListFields(ctx context.Context) ([]model.FieldDescriptor, error)
	ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error)
}

// ─── Redis-backed fast path ─────────────────────────────────

const (
	redisFieldsKey  = "form:fields"
	redisConfigsKey = "form:service-configs"
)

// FormCache fronts a FormStore with Redis so that every server replica's
// refresher does not hit PostgreSQL on each poll.
type FormCache struct {
	store FormStore
	redis *redis.Client
	ttl   time.Duration
}

// NewFormCache creates a read-through cache over store.
func NewFormCache(store FormStore, redis *redis.Client, ttl time.Duration) *FormCache {
	return &FormCache{store: store, redis: redis, ttl: ttl}
}

// ListFields returns the cached registry, loading it from the store on a miss.
func (c *FormCache) ListFields(ctx context.Context) ([]model.FieldDescriptor, error) {
	return readThrough(ctx, c, redisFieldsKey, c.store.ListFields)
}

// ListServiceConfigs returns the cached configs, loading them from the store on a miss.
func (c *FormCache) ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error) {
	return readThrough(ctx, c, redisConfigsKey, c.store.ListServiceConfigs)
}

// Invalidate drops both cached entries. Call after any admin write.
func (c *FormCache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, redisFieldsKey, redisConfigsKey).Err()
}

// readThrough tries Redis first. Cache errors are never fatal: a broken
// Redis degrades to reading the store directly.
func readThrough[T any](ctx context.Context, c *FormCache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var out []T
		if json.Unmarshal(raw, &out) == nil {
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		_ = c.redis.Set(ctx, key, raw, c.ttl).Err()
	}
	return out, nil
}
