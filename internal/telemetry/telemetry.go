// Package telemetry exposes Prometheus instrumentation for ingestion and
// the HTTP presentation layer.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kilnwatch"

type Metrics struct {
	reportsReceived *prometheus.CounterVec
	reportsDropped  *prometheus.CounterVec
	reportsApplied  prometheus.Counter
	queueDepth      prometheus.Gauge
	records         prometheus.Gauge

	httpRequestsTotal      *prometheus.CounterVec
	requestDurationSeconds *prometheus.HistogramVec
}

// New registers the kilnwatch collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		reportsReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_received_total",
				Help:      "Total number of well-formed reports enqueued",
			},
			[]string{"source"},
		),
		reportsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_dropped_total",
				Help:      "Total number of datagrams discarded before the queue",
			},
			[]string{"reason"},
		),
		reportsApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_applied_total",
				Help:      "Total number of reports folded into sensor records",
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Reports waiting for the organizer",
			},
		),
		records: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records",
				Help:      "Number of sensors with a record",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

func (m *Metrics) ReportReceived(source string) {
	m.reportsReceived.WithLabelValues(source).Inc()
}

func (m *Metrics) ReportDropped(reason string) {
	m.reportsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ReportApplied() {
	m.reportsApplied.Inc()
}

func (m *Metrics) QueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) Records(count int) {
	m.records.Set(float64(count))
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// NopRecorder discards every event
type NopRecorder struct{}

// Nop returns a recorder that discards everything
func Nop() NopRecorder {
	return NopRecorder{}
}

func (NopRecorder) ReportReceived(string)                             {}
func (NopRecorder) ReportDropped(string)                              {}
func (NopRecorder) ReportApplied()                                    {}
func (NopRecorder) QueueDepth(int)                                    {}
func (NopRecorder) Records(int)                                       {}
func (NopRecorder) ObserveRequest(string, string, int, time.Duration) {}
