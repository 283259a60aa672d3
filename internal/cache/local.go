package cache

import (
	"context"
	"regexp"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	writtenAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.writtenAt) > e.ttl
}

// Local is an in-process cache. Expired entries are evicted lazily on read or on pattern deletes.
type Local struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewLocal(defaultTTL time.Duration) *Local {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Local{
		entries: make(map[string]entry),
		ttl:     defaultTTL,
		now:     time.Now,
	}
}

// WithClock replaces the time source; tests use it to step over TTLs.
func (c *Local) WithClock(now func() time.Time) *Local {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	c.entries[key] = entry{value: stored, writtenAt: c.now(), ttl: ttl}
	c.mu.Unlock()
	return nil
}

func (c *Local) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

// DeletePattern drops every matching key and, while it is walking the map, every expired one.
func (c *Local) DeletePattern(_ context.Context, pattern *regexp.Regexp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if pattern.MatchString(k) || e.expired(now) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *Local) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

func (c *Local) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
