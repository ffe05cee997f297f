package cache

import (
	"context"
	"time"
)

// ScopedCache prefixes every key of an inner cache, so several consumers
// can share one backend without colliding.
type ScopedCache struct {
	inner  Cache
	prefix string
}

// Scoped wraps inner with a key prefix. A nil inner is treated as a
// [NullCache].
func Scoped(inner Cache, prefix string) *ScopedCache {
	if inner == nil {
		inner = NullCache{}
	}
	return &ScopedCache{inner: inner, prefix: prefix}
}

func (s *ScopedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *ScopedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *ScopedCache) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the inner cache.
func (s *ScopedCache) Close() error { return s.inner.Close() }
