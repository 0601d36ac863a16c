package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config edit metrics
	EditsTotal   *prometheus.CounterVec
	EditDuration *prometheus.HistogramVec

	// Reload metrics
	ReloadsTotal *prometheus.CounterVec

	// Live entity metrics
	LiveEntities *prometheus.GaugeVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a collector bound to a custom registry.
// Tests use this to avoid duplicate registration on the default registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "config_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "config_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		EditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "config_edits_total",
				Help: "Total number of config edit operations",
			},
			[]string{"collection", "operation", "outcome"},
		),
		EditDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "config_edit_duration_seconds",
				Help:    "Config edit duration in seconds, including validation and persistence",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"collection", "operation"},
		),

		ReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "config_reloads_total",
				Help: "Total number of collection reload reconciliations",
			},
			[]string{"collection"},
		),

		LiveEntities: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "config_live_entities",
				Help: "Number of live entities per collection",
			},
			[]string{"collection"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "config_ws_connections",
				Help: "Number of active WebSocket event stream connections",
			},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEdit records the outcome of one editor operation
func (m *Metrics) RecordEdit(collection, operation, outcome string, duration time.Duration) {
	m.EditsTotal.WithLabelValues(collection, operation, outcome).Inc()
	m.EditDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// RecordReload records one reload reconciliation
func (m *Metrics) RecordReload(collection string) {
	m.ReloadsTotal.WithLabelValues(collection).Inc()
}

// SetLiveEntities updates the live entity gauge for a collection
func (m *Metrics) SetLiveEntities(collection string, count int) {
	m.LiveEntities.WithLabelValues(collection).Set(float64(count))
}

// Uptime returns time since the collector was created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
