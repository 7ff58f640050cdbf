package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache tiers reported in metrics.
const (
	CacheTierBatch  = "batch"
	CacheTierShared = "shared"
)

// MetricsService encapsulates Prometheus instrumentation for the report API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
	reportsTotal    *prometheus.CounterVec
	studentFailures *prometheus.CounterVec
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

	cacheLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_cache_latency_seconds",
		Help:    "Latency for report cache lookups",
		Buckets: prometheus.DefBuckets,
	}, []string{"tier"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_cache_write_seconds",
		Help:    "Latency for shared cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_cache_lookups_total",
		Help: "Report cache lookups by tier and result",
	}, []string{"tier", "result"})

	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_generation_seconds",
		Help:    "Duration of report generation by kind",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	reportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Reports generated by kind and outcome",
	}, []string{"kind", "outcome"})

	studentFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_student_failures_total",
		Help: "Students replaced by a placeholder report inside a class batch",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups, reportDuration, reportsTotal, studentFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		reportDuration:  reportDuration,
		reportsTotal:    reportsTotal,
		studentFailures: studentFailures,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup for the given tier.
func (m *MetricsService) RecordCacheOperation(tier string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLatency.WithLabelValues(tier).Observe(duration.Seconds())
	m.cacheLookups.WithLabelValues(tier, result).Inc()
}

// ObserveCacheWrite tracks the duration for shared cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveReport records the outcome and duration of one report request.
func (m *MetricsService) ObserveReport(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reportDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.reportsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordStudentFailure counts a per-student failure absorbed by a class batch.
func (m *MetricsService) RecordStudentFailure(kind string) {
	if m == nil {
		return
	}
	m.studentFailures.WithLabelValues(kind).Inc()
}
