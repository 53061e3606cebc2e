// Package monitoring collects Prometheus metrics for the HTTP surface and
// the external browser tool.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Browser tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Operation metrics (search/browse/screenshot)
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Queue metrics
	QueueDepth prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on a private registry,
// so repeated construction in tests never panics on duplicate registration.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

// NewMetricsOn creates a metrics collector on the given registry.
func NewMetricsOn(reg *prometheus.Registry) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchbrowser_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchbrowser_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"method", "path"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchbrowser_tool_calls_total",
				Help: "Total number of browser tool invocations",
			},
			[]string{"subcommand", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchbrowser_tool_duration_seconds",
				Help:    "Browser tool invocation duration in seconds",
				Buckets: []float64{.05, .1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"subcommand"},
		),

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchbrowser_operations_total",
				Help: "Total number of browser-driving operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchbrowser_operation_duration_seconds",
				Help:    "End-to-end operation duration in seconds",
				Buckets: []float64{.5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),

		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchbrowser_queue_depth",
				Help: "Number of operations waiting in the request queue",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchbrowser_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	return m
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordToolCall records one browser tool invocation.
func (m *Metrics) RecordToolCall(subcommand, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(subcommand, status).Inc()
	m.ToolDuration.WithLabelValues(subcommand).Observe(duration.Seconds())
}

// RecordOperation records one completed search/browse/screenshot operation.
func (m *Metrics) RecordOperation(operation, status string, duration time.Duration) {
	m.Operations.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetQueueDepth updates the queue depth gauge.
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

// TickUptime refreshes the uptime gauge.
func (m *Metrics) TickUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// Handler returns the Prometheus exposition handler for this collector.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
