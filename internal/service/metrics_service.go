package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	rosterEnrollments prometheus.Counter
	rosterRuns        *prometheus.CounterVec
	markWrites        *prometheus.CounterVec
	exportDuration    *prometheus.HistogramVec
}

// NewMetricsService registers the collectors on a private registry.
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

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_transitions_total",
		Help: "Gradebook lifecycle transitions by outcome",
	}, []string{"transition", "outcome"})

	rosterEnrollments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_enrollments_total",
		Help: "Trainees enrolled into gradebooks",
	})

	rosterRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_reconciliations_total",
		Help: "Roster reconciliation runs by outcome",
	}, []string{"outcome"})

	markWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mark_writes_total",
		Help: "Mark entry writes by outcome",
	}, []string{"outcome"})

	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assessor_export_duration_seconds",
		Help:    "Time spent rendering assessor sheets",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, rosterEnrollments, rosterRuns, markWrites, exportDuration, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		transitions:       transitions,
		rosterEnrollments: rosterEnrollments,
		rosterRuns:        rosterRuns,
		markWrites:        markWrites,
		exportDuration:    exportDuration,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordTransition counts a lifecycle transition attempt.
func (m *MetricsService) RecordTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, outcome).Inc()
}

// RecordReconciliation counts a roster run and the trainees it enrolled.
func (m *MetricsService) RecordReconciliation(outcome string, enrolled int) {
	if m == nil {
		return
	}
	m.rosterRuns.WithLabelValues(outcome).Inc()
	if enrolled > 0 {
		m.rosterEnrollments.Add(float64(enrolled))
	}
}

// RecordMarkWrite counts a mark entry write.
func (m *MetricsService) RecordMarkWrite(outcome string) {
	if m == nil {
		return
	}
	m.markWrites.WithLabelValues(outcome).Inc()
}

// ObserveExport records how long an assessor sheet took to render.
func (m *MetricsService) ObserveExport(format string, duration time.Duration) {
	if m == nil {
		return
	}
	m.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}
