package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
	"github.com/matzehuels/typegraph/pkg/storage"
)

// chdir switches to a fresh directory so no stray typegraph.toml or .env is
// picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, layout.DefaultOptions(), cfg.Layout)
	assert.Equal(t, 100, cfg.Visibility.ExpandThreshold)
	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, cache.BackendNone, cfg.Cache.Backend)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[layout]
direction = "lr"
node_sep = 30

[import]
kinds = ["data", "enum"]
namespaces = ["cdm.*"]
hide_orphans = true

[history]
limit = 10

[cache]
backend = "memory"
size = 64
ttl = "1h"

[storage]
backend = "sqlite"
path = "/tmp/typegraph.db"

[server]
addr = ":9000"
watch = true
debounce = "500ms"
`)
	require.NoError(t, err)

	assert.Equal(t, layout.LeftRight, cfg.Layout.Direction)
	assert.Equal(t, 30.0, cfg.Layout.NodeSep)
	assert.Equal(t, float64(layout.DefaultRankSep), cfg.Layout.RankSep, "unset fields keep defaults")
	assert.Equal(t, []graph.Kind{graph.KindData, graph.KindEnum}, cfg.Import.Kinds)
	assert.Equal(t, []string{"cdm.*"}, cfg.Import.Namespaces)
	assert.True(t, cfg.Import.HideOrphans)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, 100, cfg.Visibility.ExpandThreshold)
	assert.Equal(t, Cache{Backend: "memory", Size: 64, TTL: time.Hour}, cfg.Cache)
	assert.Equal(t, "/tmp/typegraph.db", cfg.Storage.Path)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.Debounce)
	assert.Equal(t, []string{"*.json"}, cfg.Server.Patterns)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"syntax", `[layout`, "parse config"},
		{"kind", `[import]
kinds = ["class"]`, "unknown kind"},
		{"cache backend", `[cache]
backend = "memcached"`, "cache.backend"},
		{"redis without addr", `[cache]
backend = "redis"`, "redis_addr"},
		{"storage backend", `[storage]
backend = "postgres"`, "storage.backend"},
		{"mongo without uri", `[storage]
backend = "mongo"`, "mongo_uri"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[history]\nlimit = 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.History.Limit)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestLoad_DefaultFile(t *testing.T) {
	chdir(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().History, cfg.History)

	require.NoError(t, os.WriteFile(DefaultFile, []byte("[server]\naddr = \":7000\"\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	require.NoError(t, os.WriteFile(DefaultFile, []byte("[cache]\nbackend = \"file\"\n"), 0o644))
	t.Setenv("TYPEGRAPH_CACHE_BACKEND", "memory")
	t.Setenv("TYPEGRAPH_IMPORT_KINDS", "Data, enumeration")
	t.Setenv("TYPEGRAPH_LAYOUT_DIRECTION", "rl")
	t.Setenv("TYPEGRAPH_SERVER_WATCH", "true")
	t.Setenv("TYPEGRAPH_SERVER_PATTERNS", "*.json, *.out")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend, "env beats file")
	assert.Equal(t, []graph.Kind{graph.KindData, graph.KindEnum}, cfg.Import.Kinds)
	assert.Equal(t, layout.RightLeft, cfg.Layout.Direction)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, []string{"*.json", "*.out"}, cfg.Server.Patterns)
}

func TestLoad_DotEnv(t *testing.T) {
	chdir(t)
	// Registered so the variable set by godotenv is removed afterwards.
	t.Setenv("TYPEGRAPH_HISTORY_LIMIT", "")
	require.NoError(t, os.Unsetenv("TYPEGRAPH_HISTORY_LIMIT"))
	require.NoError(t, os.WriteFile(".env", []byte("TYPEGRAPH_HISTORY_LIMIT=7\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.History.Limit)
}

func TestApplyEnvOverrides_Malformed(t *testing.T) {
	t.Setenv("TYPEGRAPH_HISTORY_LIMIT", "many")
	t.Setenv("TYPEGRAPH_CACHE_TTL", "forever")
	t.Setenv("TYPEGRAPH_LAYOUT_DIRECTION", "diagonal")

	err := ApplyEnvOverrides(Default())
	require.Error(t, err)
	assert.ErrorContains(t, err, "TYPEGRAPH_HISTORY_LIMIT")
	assert.ErrorContains(t, err, "TYPEGRAPH_CACHE_TTL")
	assert.ErrorContains(t, err, "TYPEGRAPH_LAYOUT_DIRECTION")
}

func TestCache_Open(t *testing.T) {
	c, err := Cache{Backend: cache.BackendMemory, Size: 8}.Open(context.Background())
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &cache.MemoryCache{}, c)
}
