package cache

import (
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

const (
	// DefaultExpiration applies when Set is called without a positive ttl.
	DefaultExpiration = 30 * time.Minute
	// DefaultCleanupInterval is how often expired entries are evicted.
	DefaultCleanupInterval = 10 * time.Minute
)

// Cache is a typed, expiring, in-process key/value store.
type Cache[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	// Add stores value only when key is absent or expired.
	Add(key K, value V, ttl time.Duration) bool
	Delete(key K)
	Len() int
}

type ttlCache[K ~string, V any] struct {
	store *goCache.Cache
}

// NewTTLCache returns a go-cache backed Cache using the package defaults.
func NewTTLCache[K ~string, V any]() Cache[K, V] {
	return NewTTLCacheWith[K, V](DefaultExpiration, DefaultCleanupInterval)
}

func NewTTLCacheWith[K ~string, V any](expiration, cleanup time.Duration) Cache[K, V] {
	return &ttlCache[K, V]{store: goCache.New(expiration, cleanup)}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	var zero V
	raw, ok := c.store.Get(string(key))
	if !ok {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.store.Set(string(key), value, expiration(ttl))
}

func (c *ttlCache[K, V]) Add(key K, value V, ttl time.Duration) bool {
	return c.store.Add(string(key), value, expiration(ttl)) == nil
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.store.Delete(string(key))
}

func (c *ttlCache[K, V]) Len() int {
	return c.store.ItemCount()
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return goCache.DefaultExpiration
	}
	return ttl
}

// Key joins the non-blank parts into a normalized cache key.
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
