package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(CacheTierBatch, true, time.Millisecond)
	m.RecordCacheOperation(CacheTierBatch, false, time.Millisecond)
	m.RecordCacheOperation(CacheTierBatch, true, time.Millisecond)
	m.ObserveReport(ReportKindClassTerm, 20*time.Millisecond, nil)
	m.ObserveReport(ReportKindClassTerm, 5*time.Millisecond, errors.New("boom"))
	m.RecordStudentFailure(ReportKindClassTerm)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `report_cache_lookups_total{result="hit",tier="batch"} 2`)
	assert.Contains(t, body, `report_cache_lookups_total{result="miss",tier="batch"} 1`)
	assert.Contains(t, body, `reports_generated_total{kind="class_term",outcome="error"} 1`)
	assert.Contains(t, body, `report_student_failures_total{kind="class_term"} 1`)
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/reports/students/:id/yearly", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordCacheOperation(CacheTierShared, true, time.Millisecond)
	m.ObserveReport(ReportKindTerm, time.Millisecond, nil)
	m.RecordStudentFailure(ReportKindTerm)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
