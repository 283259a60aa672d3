package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/metrics"
)

// DefaultTTL applies whenever a caller passes a ttl <= 0.
const DefaultTTL = 5 * time.Minute

// Store is a key → bytes cache with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern *regexp.Regexp) error
	Clear(ctx context.Context) error
}

// Cache is the read-through layer injected into data-access services.
// Backend failures are logged and treated as misses.
type Cache struct {
	store   Store
	logger  *logger.Logger
	ttl     time.Duration
	backend string
}

func New(store Store, log *logger.Logger, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	backend := "memory"
	if _, ok := store.(*Redis); ok {
		backend = "redis"
	}
	return &Cache{store: store, logger: log, ttl: ttl, backend: backend}
}

func (c *Cache) Store() Store { return c.store }

// Invalidate deletes the given keys. Called synchronously after every successful write.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("failed to invalidate %v: %v", keys, err))
		return
	}
	metrics.CacheInvalidations.WithLabelValues("key").Add(float64(len(keys)))
	for _, k := range keys {
		c.logger.LogCache("invalidate", k)
	}
}

// InvalidatePattern deletes every key matching expr (a regular expression).
func (c *Cache) InvalidatePattern(ctx context.Context, expr string) {
	pattern, err := regexp.Compile(expr)
	if err != nil {
		c.logger.Error("CACHE", fmt.Sprintf("bad invalidation pattern %q: %v", expr, err))
		return
	}
	if err := c.store.DeletePattern(ctx, pattern); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("failed to invalidate pattern %q: %v", expr, err))
		return
	}
	metrics.CacheInvalidations.WithLabelValues("pattern").Inc()
	c.logger.LogCache("invalidate-pattern", expr)
}

// Clear drops every entry in the backing store.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	metrics.CacheInvalidations.WithLabelValues("all").Inc()
	c.logger.LogCache("clear", "*")
	return nil
}

// Close drops in-process entries. Redis entries are shared with other instances and left to expire.
func (c *Cache) Close() error {
	if local, ok := c.store.(*Local); ok {
		return local.Clear(context.Background())
	}
	return nil
}

// Fetch returns the cached value for key, or calls load, caches the result and returns it.
// Load errors are returned as is and nothing is cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("get %s failed, reading through: %v", key, err))
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.CacheHits.WithLabelValues(c.backend).Inc()
			c.logger.LogCache("hit", key)
			return v, nil
		}
		c.logger.Warn("CACHE", fmt.Sprintf("discarding undecodable entry %s", key))
	}

	metrics.CacheMisses.WithLabelValues(c.backend).Inc()
	c.logger.LogCache("miss", key)

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("cannot encode %s: %v", key, err))
		return v, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("set %s failed: %v", key, err))
	}
	return v, nil
}
