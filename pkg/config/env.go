package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
)

// EnvPrefix starts every override variable. Variables follow
// TYPEGRAPH_<SECTION>_<KEY>, e.g. TYPEGRAPH_CACHE_BACKEND.
const EnvPrefix = "TYPEGRAPH_"

// ApplyEnvOverrides applies TYPEGRAPH_* variables to cfg. Malformed values
// are reported together.
func ApplyEnvOverrides(cfg *Config) error {
	e := &envReader{}

	e.direction(&cfg.Layout.Direction, "LAYOUT_DIRECTION")
	e.float(&cfg.Layout.NodeSep, "LAYOUT_NODE_SEP")
	e.float(&cfg.Layout.RankSep, "LAYOUT_RANK_SEP")
	e.float(&cfg.Layout.NodeWidth, "LAYOUT_NODE_WIDTH")

	e.kinds(&cfg.Import.Kinds, "IMPORT_KINDS")
	e.list(&cfg.Import.Namespaces, "IMPORT_NAMESPACES")
	e.string(&cfg.Import.NamePattern, "IMPORT_NAME_PATTERN")
	e.bool(&cfg.Import.HideOrphans, "IMPORT_HIDE_ORPHANS")
	e.list(&cfg.Import.ReadOnlyNamespaces, "IMPORT_READ_ONLY_NAMESPACES")

	e.int(&cfg.Visibility.ExpandThreshold, "VISIBILITY_EXPAND_THRESHOLD")
	e.int(&cfg.History.Limit, "HISTORY_LIMIT")

	e.string(&cfg.Cache.Backend, "CACHE_BACKEND")
	e.string(&cfg.Cache.Dir, "CACHE_DIR")
	e.int(&cfg.Cache.Size, "CACHE_SIZE")
	e.string(&cfg.Cache.RedisAddr, "CACHE_REDIS_ADDR")
	e.duration(&cfg.Cache.TTL, "CACHE_TTL")

	e.string(&cfg.Storage.Backend, "STORAGE_BACKEND")
	e.string(&cfg.Storage.Path, "STORAGE_PATH")
	e.string(&cfg.Storage.MongoURI, "STORAGE_MONGO_URI")
	e.string(&cfg.Storage.MongoDatabase, "STORAGE_MONGO_DATABASE")

	e.string(&cfg.Server.Addr, "SERVER_ADDR")
	e.bool(&cfg.Server.Watch, "SERVER_WATCH")
	e.duration(&cfg.Server.Debounce, "SERVER_DEBOUNCE")
	e.list(&cfg.Server.Patterns, "SERVER_PATTERNS")

	return errors.Join(e.errs...)
}

type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	return strings.TrimSpace(v), ok
}

func (e *envReader) fail(key, val string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, val, err))
}

func (e *envReader) string(target *string, key string) {
	if v, ok := e.lookup(key); ok {
		*target = v
	}
}

func (e *envReader) list(target *[]string, key string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*target = out
}

func (e *envReader) int(target *int, key string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*target = n
}

func (e *envReader) float(target *float64, key string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*target = f
}

func (e *envReader) bool(target *bool, key string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*target = b
}

func (e *envReader) duration(target *time.Duration, key string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*target = d
}

func (e *envReader) direction(target *layout.Direction, key string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := layout.ParseDirection(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*target = d
}

func (e *envReader) kinds(target *[]graph.Kind, key string) {
	var names []string
	e.list(&names, key)
	if names == nil {
		if _, ok := e.lookup(key); ok {
			*target = nil
		}
		return
	}
	kinds := make([]graph.Kind, 0, len(names))
	for _, n := range names {
		k, err := graph.ParseKind(n)
		if err != nil {
			e.fail(key, n, err)
			return
		}
		kinds = append(kinds, k)
	}
	*target = kinds
}
