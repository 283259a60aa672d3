package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultRedisPrefix = "cafe:cache:"

// Redis shares cache entries between service instances. Expiry is delegated to Redis TTLs.
type Redis struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedis(client *redis.Client, defaultTTL time.Duration) *Redis {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Redis{Client: client, Prefix: DefaultRedisPrefix, TTL: defaultTTL}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Client.Get(ctx, r.Prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.TTL
	}
	if err := r.Client.Set(ctx, r.Prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.Prefix + k
	}
	return r.Client.Del(ctx, prefixed...).Err()
}

// DeletePattern scans the cache prefix and deletes keys whose unprefixed name matches pattern.
func (r *Redis) DeletePattern(ctx context.Context, pattern *regexp.Regexp) error {
	return r.deleteMatching(ctx, pattern.MatchString)
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.deleteMatching(ctx, func(string) bool { return true })
}

func (r *Redis) deleteMatching(ctx context.Context, match func(string) bool) error {
	var doomed []string
	iter := r.Client.Scan(ctx, 0, r.Prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if match(strings.TrimPrefix(key, r.Prefix)) {
			doomed = append(doomed, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(doomed) == 0 {
		return nil
	}
	return r.Client.Del(ctx, doomed...).Err()
}
