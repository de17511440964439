// Package metrics exposes Prometheus instruments for uploads, dataset
// operations, exports, sessions and HTTP traffic.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datasweeper"

// Upload outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics groups the application's instruments.
type Metrics struct {
	uploads      *prometheus.CounterVec
	parseSeconds *prometheus.HistogramVec
	operations   *prometheus.CounterVec
	exports      *prometheus.CounterVec
	sessions     prometheus.Gauge
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the instruments with reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated; nil uses the default
// registry.
func New(reg prometheus.Registerer) *Metrics {
	gatherer := prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	f := promauto.With(reg)

	return &Metrics{
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by format and outcome.",
		}, []string{"format", "outcome"}),
		parseSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one uploaded file.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"format"}),
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Dataset operations by kind and result.",
		}, []string{"operation", "result"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Downloads by format.",
		}, []string{"format"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: gatherer,
	}
}

// Upload counts one uploaded file. format may be empty for rejected files
// with an unknown extension.
func (m *Metrics) Upload(format, outcome string) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.uploads.WithLabelValues(format, outcome).Inc()
}

// ObserveParse records how long parsing one file took.
func (m *Metrics) ObserveParse(format string, d time.Duration) {
	if m == nil || format == "" {
		return
	}
	m.parseSeconds.WithLabelValues(format).Observe(d.Seconds())
}

// Operation counts a dataset operation; failed reports whether it errored.
func (m *Metrics) Operation(op string, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// Export counts one download.
func (m *Metrics) Export(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// SetSessions reports the live session count.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
