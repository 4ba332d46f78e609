package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the reconciliation engine and the backfill scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backfillTotal   *prometheus.CounterVec
	alertsTotal     *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	backfillTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_backfill_days_total",
		Help: "Backfill scheduler day outcomes",
	}, []string{"outcome"})

	alertsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_alerts_total",
		Help: "Alerts emitted by the reconciliation engine",
	}, []string{"type", "severity"})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		backfillTotal,
		alertsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backfillTotal:   backfillTotal,
		alertsTotal:     alertsTotal,
	}
}

// ObserveHTTPRequest records a request duration and count.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordBackfillOutcome bumps the backfill counter for an outcome bucket.
func (s *MetricsService) RecordBackfillOutcome(outcome string, count int) {
	if s == nil || count <= 0 {
		return
	}
	s.backfillTotal.WithLabelValues(outcome).Add(float64(count))
}

// RecordAlert counts an emitted alert.
func (s *MetricsService) RecordAlert(alertType, severity string) {
	if s == nil {
		return
	}
	s.alertsTotal.WithLabelValues(alertType, severity).Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}
