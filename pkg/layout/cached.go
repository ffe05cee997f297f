package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/observability"
)

const cacheKeyType = "layout"

// CachedEngine serves layouts from a cache, computing and storing them on a
// miss. Cache failures are logged and never fail the layout.
type CachedEngine struct {
	Inner  Layouter
	Cache  cache.Cache
	TTL    time.Duration
	Logger *log.Logger
}

// Key returns the cache key for a layout request. Only properties that
// influence positions are hashed: node ids and member counts, edge
// endpoints and the normalized options.
func Key(nodes []*graph.Node, edges []graph.Edge, opts Options) string {
	type keyNode struct {
		ID      string `json:"i"`
		Members int    `json:"m"`
	}
	ns := make([]keyNode, len(nodes))
	for i, n := range nodes {
		ns[i] = keyNode{n.ID, len(n.Members)}
	}
	es := make([][2]string, len(edges))
	for i, e := range edges {
		es[i] = [2]string{e.Source, e.Target}
	}
	return cache.Key(cacheKeyType, ns, es, opts.WithDefaults())
}

func (c *CachedEngine) Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error) {
	inner := c.Inner
	if inner == nil {
		inner = Engine{}
	}
	if c.Cache == nil || len(nodes) == 0 {
		return inner.Layout(ctx, nodes, edges, opts)
	}
	hooks := observability.Cache()
	key := Key(nodes, edges, opts)

	data, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.logger().Warn("layout cache read failed", "err", err)
	}
	if ok {
		var positions map[string]graph.Position
		if err := json.Unmarshal(data, &positions); err == nil {
			hooks.OnCacheHit(ctx, cacheKeyType)
			c.logger().Debug("layout cache hit", "nodes", len(nodes))
			return applyPositions(nodes, positions), nil
		}
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	out, err := inner.Layout(ctx, nodes, edges, opts)
	if err != nil {
		return nil, err
	}
	positions := make(map[string]graph.Position, len(out))
	for _, n := range out {
		if _, dup := positions[n.ID]; !dup {
			positions[n.ID] = n.Position
		}
	}
	if data, err := json.Marshal(positions); err == nil {
		if err := c.Cache.Set(ctx, key, data, c.TTL); err != nil {
			c.logger().Warn("layout cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return out, nil
}

func (c *CachedEngine) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// applyPositions returns shallow copies of nodes with positions from m.
// Nodes missing from m keep their position.
func applyPositions(nodes []*graph.Node, m map[string]graph.Position) []*graph.Node {
	out := make([]*graph.Node, len(nodes))
	for i, n := range nodes {
		c := *n
		if p, ok := m[n.ID]; ok {
			c.Position = p
		}
		out[i] = &c
	}
	return out
}

var _ Layouter = (*CachedEngine)(nil)
