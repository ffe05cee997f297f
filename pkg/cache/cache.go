// Package cache provides byte-oriented caches for computed layouts.
//
// All backends implement [Cache]:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: bounded LRU in process memory, for the server
//   - [RedisCache]: shared cache for multi-instance deployments
//
// Keys are opaque strings; [Key] builds stable keys by hashing arbitrary
// JSON-serializable parts. [Scoped] prefixes every key of an inner cache.
//
// A miss is not an error: Get reports (nil, false, nil).
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque values by key with an optional TTL.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Dir       string // file
	Size      int    // memory
	RedisAddr string // redis
}

// Open creates the backend named by cfg.Backend. An empty backend means
// [BackendNone].
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMemory:
		c, err := NewMemoryCache(cfg.Size)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// DefaultDir returns the per-user cache directory for typegraph.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(base, "typegraph"), nil
}
