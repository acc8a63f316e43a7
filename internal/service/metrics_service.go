package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the UI server
// and the outbound backend gateway calls.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	backendCount         uint64
	backendDurationTotal uint64
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

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of reporting backend calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})

	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Total number of reporting backend calls",
	}, []string{"op", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, backendDuration, backendTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records UI request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveBackendRequest records one outbound gateway call. Status zero means
// the transport failed before a response arrived.
func (m *MetricsService) ObserveBackendRequest(op string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.backendDuration.WithLabelValues(op, labelStatus).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(op, labelStatus).Inc()
	atomic.AddUint64(&m.backendCount, 1)
	atomic.AddUint64(&m.backendDurationTotal, uint64(duration.Nanoseconds()))
}

// Snapshot returns simple aggregates for diagnostics.
func (m *MetricsService) Snapshot() (requests, backendCalls uint64, avgRequestMs, avgBackendMs float64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	requests = atomic.LoadUint64(&m.requestCount)
	backendCalls = atomic.LoadUint64(&m.backendCount)
	if requests > 0 {
		avgRequestMs = float64(atomic.LoadUint64(&m.requestDurationTotal)) / float64(requests) / float64(time.Millisecond)
	}
	if backendCalls > 0 {
		avgBackendMs = float64(atomic.LoadUint64(&m.backendDurationTotal)) / float64(backendCalls) / float64(time.Millisecond)
	}
	return requests, backendCalls, avgRequestMs, avgBackendMs
}
