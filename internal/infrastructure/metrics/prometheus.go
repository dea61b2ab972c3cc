package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	// Prometheus metrics
	loads             prometheus.Counter
	loadErrors        prometheus.Counter
	loadDuration      prometheus.Histogram
	graphItems        prometheus.Gauge
	graphRules        prometheus.Gauge
	graphAssignments  prometheus.Gauge
	authorityRequests *prometheus.CounterVec
	authorityDuration *prometheus.HistogramVec
	authorityErrors   *prometheus.CounterVec
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter() *PrometheusExporter {
	return &PrometheusExporter{
		loads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgraph_loads_total",
			Help: "Total number of snapshot load attempts",
		}),
		loadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgraph_load_errors_total",
			Help: "Total number of failed snapshot loads",
		}),
		loadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgraph_load_duration_seconds",
			Help:    "Duration of snapshot loads in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),
		graphItems: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "authgraph_graph_items",
			Help: "Number of items (roles and permissions) in the current policy graph",
		}),
		graphRules: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "authgraph_graph_rules",
			Help: "Number of rules in the current policy graph",
		}),
		graphAssignments: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "authgraph_graph_assignments",
			Help: "Number of user-item assignments in the current policy graph",
		}),
		authorityRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgraph_authority_requests_total",
				Help: "Total number of requests to the policy authority",
			},
			[]string{"operation"},
		),
		authorityDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authgraph_authority_request_duration_seconds",
				Help:    "Duration of policy authority requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"operation"},
		),
		authorityErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgraph_authority_errors_total",
				Help: "Total number of failed policy authority requests",
			},
			[]string{"operation"},
		),
	}
}

// RecordLoad records a snapshot load attempt and its duration.
func (e *PrometheusExporter) RecordLoad(durationSeconds float64) {
	e.loads.Inc()
	e.loadDuration.Observe(durationSeconds)
}

// RecordLoadError records a failed snapshot load.
func (e *PrometheusExporter) RecordLoadError() {
	e.loadErrors.Inc()
}

// UpdateGraph updates the graph size gauges.
// This should be called after every successful load.
func (e *PrometheusExporter) UpdateGraph(items, rules, assignments int) {
	e.graphItems.Set(float64(items))
	e.graphRules.Set(float64(rules))
	e.graphAssignments.Set(float64(assignments))
}

// RecordRequest records an authority request in Prometheus.
func (e *PrometheusExporter) RecordRequest(operation string) {
	e.authorityRequests.WithLabelValues(operation).Inc()
}

// RecordDuration records an authority request duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(operation string, durationSeconds float64) {
	e.authorityDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordError records a failed authority request in Prometheus.
func (e *PrometheusExporter) RecordError(operation string) {
	e.authorityErrors.WithLabelValues(operation).Inc()
}
