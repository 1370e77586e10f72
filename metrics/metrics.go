package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the transit metrics on its own registry.
type Collector struct {
	reg *prometheus.Registry

	BuildDuration prometheus.Histogram
	Vertices      prometheus.Gauge
	Edges         prometheus.Gauge
	Stops         prometheus.Gauge

	Queries          *prometheus.CounterVec // kind label: connections|stops
	QueryDuration    prometheus.Histogram
	ConnectionsFound prometheus.Histogram

	LoadErrors *prometheus.CounterVec // reason label: not_found|corrupt|other
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transit_build_duration_seconds",
			Help:    "Duration of building a model from a timetable.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		Vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_graph_vertices",
			Help: "Number of vertices in the loaded graph.",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_graph_edges",
			Help: "Number of edges in the loaded graph.",
		}),
		Stops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_model_stops",
			Help: "Number of stops in the loaded model.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transit_queries_total",
			Help: "Total queries answered.",
		}, []string{"kind"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transit_query_duration_seconds",
			Help:    "Duration of connection searches.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		ConnectionsFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transit_connections_found",
			Help:    "Number of connections returned per search.",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transit_model_load_errors_total",
			Help: "Number of failed model loads.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.BuildDuration, c.Vertices, c.Edges, c.Stops,
		c.Queries, c.QueryDuration, c.ConnectionsFound,
		c.LoadErrors,
	)

	return c
}

func (c *Collector) ObserveBuild(d time.Duration) {
	c.BuildDuration.Observe(d.Seconds())
}

func (c *Collector) SetModelSize(stops int, vertices int, edges int) {
	c.Stops.Set(float64(stops))
	c.Vertices.Set(float64(vertices))
	c.Edges.Set(float64(edges))
}

func (c *Collector) ObserveQuery(kind string, d time.Duration, found int) {
	c.Queries.WithLabelValues(kind).Inc()
	if kind == "connections" {
		c.QueryDuration.Observe(d.Seconds())
		c.ConnectionsFound.Observe(float64(found))
	}
}

func (c *Collector) LoadFailed(reason string) {
	c.LoadErrors.WithLabelValues(reason).Inc()
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
