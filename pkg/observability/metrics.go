package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements every hook interface with Prometheus collectors.
type Metrics struct {
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	GraphNodes      prometheus.Gauge
	GraphEdges      prometheus.Gauge
	HistoryTotal    *prometheus.CounterVec
	LayoutDuration  prometheus.Histogram
	LayoutNodes     prometheus.Gauge
	LayoutErrors    prometheus.Counter
	LayoutDiscarded prometheus.Counter
	CacheLookups    *prometheus.CounterVec
	CacheBytes      *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typegraph_commands_total",
			Help: "Edit commands applied to the graph store, by command and outcome.",
		}, []string{"command", "outcome"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typegraph_command_seconds",
			Help:    "Time spent applying an edit command.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"command"}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_graph_nodes",
			Help: "Number of types in the last loaded graph.",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_graph_edges",
			Help: "Number of edges in the last loaded graph.",
		}),
		HistoryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typegraph_history_total",
			Help: "Undo and redo operations.",
		}, []string{"action"}),
		LayoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "typegraph_layout_seconds",
			Help:    "Time spent computing a layout.",
			Buckets: prometheus.DefBuckets,
		}),
		LayoutNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_layout_nodes",
			Help: "Number of types in the last layout request.",
		}),
		LayoutErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_layout_errors_total",
			Help: "Layout computations that failed or were canceled.",
		}),
		LayoutDiscarded: f.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_layout_discarded_total",
			Help: "Background layout results dropped as stale.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typegraph_cache_lookups_total",
			Help: "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typegraph_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typegraph_http_requests_total",
			Help: "HTTP API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typegraph_http_request_seconds",
			Help:    "HTTP API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) OnCommand(command string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) OnLoad(nodes, edges int) {
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

func (m *Metrics) OnHistory(action string) {
	m.HistoryTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) OnLayoutStart(_ context.Context, nodeCount int) {
	m.LayoutNodes.Set(float64(nodeCount))
}

func (m *Metrics) OnLayoutComplete(_ context.Context, _ int, d time.Duration, err error) {
	if err != nil {
		m.LayoutErrors.Inc()
		return
	}
	m.LayoutDuration.Observe(d.Seconds())
}

func (m *Metrics) OnLayoutDiscarded(uint64) { m.LayoutDiscarded.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ StoreHooks  = (*Metrics)(nil)
	_ LayoutHooks = (*Metrics)(nil)
	_ CacheHooks  = (*Metrics)(nil)
	_ HTTPHooks   = (*Metrics)(nil)
)
