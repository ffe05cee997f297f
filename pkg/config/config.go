// Package config loads typegraph settings.
//
// Settings come from three layers, later layers winning:
//
//  1. [Default] values
//  2. a TOML file (typegraph.toml)
//  3. TYPEGRAPH_* environment variables, optionally read from a .env file
//
// CLI flags are applied on top by the caller.
//
//	cfg, err := config.Load("typegraph.toml")
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/history"
	"github.com/matzehuels/typegraph/pkg/importer"
	"github.com/matzehuels/typegraph/pkg/layout"
	"github.com/matzehuels/typegraph/pkg/storage"
	"github.com/matzehuels/typegraph/pkg/store"
	"github.com/matzehuels/typegraph/pkg/watch"
)

// DefaultFile is the config file looked up in the working directory when no
// path is given.
const DefaultFile = "typegraph.toml"

// DefaultAddr is the HTTP listen address.
const DefaultAddr = "127.0.0.1:8080"

// Config holds every section of typegraph.toml.
type Config struct {
	Layout     layout.Options   `toml:"layout"`
	Import     importer.Filters `toml:"import"`
	Visibility Visibility       `toml:"visibility"`
	History    History          `toml:"history"`
	Cache      Cache            `toml:"cache"`
	Storage    storage.Config   `toml:"storage"`
	Server     Server           `toml:"server"`
}

type Visibility struct {
	// ExpandThreshold is the largest node count for which every namespace
	// starts expanded.
	ExpandThreshold int `toml:"expand_threshold"`
}

type History struct {
	Limit int `toml:"limit"`
}

// Cache configures the layout cache.
type Cache struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	Size      int           `toml:"size"`
	RedisAddr string        `toml:"redis_addr"`
	TTL       time.Duration `toml:"ttl"`
}

// Open creates the configured cache backend.
func (c Cache) Open(ctx context.Context) (cache.Cache, error) {
	return cache.Open(ctx, cache.Config{
		Backend:   c.Backend,
		Dir:       c.Dir,
		Size:      c.Size,
		RedisAddr: c.RedisAddr,
	})
}

// Server configures typegraph serve.
type Server struct {
	Addr     string        `toml:"addr"`
	Watch    bool          `toml:"watch"`
	Debounce time.Duration `toml:"debounce"`
	Patterns []string      `toml:"patterns"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout:     layout.DefaultOptions(),
		Visibility: Visibility{ExpandThreshold: store.DefaultExpandThreshold},
		History:    History{Limit: history.DefaultLimit},
		Cache: Cache{
			Backend: cache.BackendNone,
			Size:    256,
			TTL:     24 * time.Hour,
		},
		Storage: storage.Config{Backend: storage.BackendSQLite},
		Server: Server{
			Addr:     DefaultAddr,
			Debounce: watch.DefaultDebounce,
			Patterns: []string{watch.DefaultPattern},
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path uses [DefaultFile] when it exists and
// the defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := LoadDotEnv(""); err != nil {
		return nil, err
	}
	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults without consulting the
// environment.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from path (".env" when empty) without
// overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Layout = cfg.Layout.WithDefaults()
	if cfg.Visibility.ExpandThreshold <= 0 {
		cfg.Visibility.ExpandThreshold = store.DefaultExpandThreshold
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = history.DefaultLimit
	}
	if strings.TrimSpace(cfg.Cache.Backend) == "" {
		cfg.Cache.Backend = cache.BackendNone
	}
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = storage.BackendSQLite
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.Debounce <= 0 {
		cfg.Server.Debounce = watch.DefaultDebounce
	}
	if len(cfg.Server.Patterns) == 0 {
		cfg.Server.Patterns = []string{watch.DefaultPattern}
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	var errs []error
	for _, k := range c.Import.Kinds {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("import.kinds: unknown kind %q", k))
		}
	}
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendFile, cache.BackendMemory:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	switch c.Storage.Backend {
	case storage.BackendSQLite:
	case storage.BackendMongo:
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("storage.mongo_uri is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}
