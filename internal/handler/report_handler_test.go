package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/grading"
	"github.com/noah-isme/sma-report-api/internal/service"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

type reportServiceMock struct {
	term        *dto.TermReport
	yearly      *dto.YearlyReport
	classTerm   []dto.TermReport
	classYearly []dto.YearlyReport
	terms       []int
	err         error
	lastTerm    int
	lastClass   string
	lastRoll    string
}

func (m *reportServiceMock) TermReport(ctx context.Context, studentID string, term int) (*dto.TermReport, error) {
	m.lastTerm = term
	return m.term, m.err
}

func (m *reportServiceMock) YearlyReport(ctx context.Context, studentID string) (*dto.YearlyReport, error) {
	return m.yearly, m.err
}

func (m *reportServiceMock) ClassTermReport(ctx context.Context, classID string, term int) ([]dto.TermReport, error) {
	m.lastTerm = term
	return m.classTerm, m.err
}

func (m *reportServiceMock) ClassYearlyReport(ctx context.Context, classID string) ([]dto.YearlyReport, error) {
	return m.classYearly, m.err
}

func (m *reportServiceMock) AvailableTerms(ctx context.Context, studentID string) ([]int, error) {
	return m.terms, m.err
}

func (m *reportServiceMock) TermReportByRollNumber(ctx context.Context, classID, rollNumber string, term int) (*dto.TermReport, error) {
	m.lastClass, m.lastRoll, m.lastTerm = classID, rollNumber, term
	return m.term, m.err
}

func (m *reportServiceMock) YearlyReportByRollNumber(ctx context.Context, classID, rollNumber string) (*dto.YearlyReport, error) {
	m.lastClass, m.lastRoll = classID, rollNumber
	return m.yearly, m.err
}

type exportServiceMock struct {
	file   *service.ExportFile
	err    error
	format string
}

func (m *exportServiceMock) ClassTerm(ctx context.Context, classID string, term int, format string) (*service.ExportFile, error) {
	m.format = format
	return m.file, m.err
}

func (m *exportServiceMock) ClassYearly(ctx context.Context, classID string, format string) (*service.ExportFile, error) {
	m.format = format
	return m.file, m.err
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func avg(v float64) *float64 { return &v }

func TestReportHandlerStudentTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportServiceMock{term: &dto.TermReport{Term: 2, Average: avg(14), Grade: grading.GradeC, Rank: 3}}
	h := NewReportHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/reports/students/s1/terms/2", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}, {Key: "term", Value: "2"}}
	h.StudentTerm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mock.lastTerm)
	var report dto.TermReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Equal(t, 3, report.Rank)
	assert.Equal(t, 14.0, *report.Average)
}

func TestReportHandlerStudentTerms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(&reportServiceMock{terms: []int{1, 3}}, nil)

	c, w := newGinContext(http.MethodGet, "/reports/students/s1/terms", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.StudentTerms(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got dto.AvailableTerms
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
	assert.Equal(t, "s1", got.StudentID)
	assert.Equal(t, []int{1, 3}, got.Terms)
}

func TestReportHandlerRollNumberTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportServiceMock{term: &dto.TermReport{Term: 3, Rank: 2}}
	h := NewReportHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/reports/classes/c1/roll/F1-GEN-GEN-002/terms/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "roll", Value: "F1-GEN-GEN-002"}, {Key: "term", Value: "3"}}
	h.RollNumberTerm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", mock.lastClass)
	assert.Equal(t, "F1-GEN-GEN-002", mock.lastRoll)
	assert.Equal(t, 3, mock.lastTerm)
}

func TestReportHandlerRollNumberYearlyNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "no student with roll number 7 in class")}
	h := NewReportHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/reports/classes/c1/roll/7/yearly", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "roll", Value: "7"}}
	h.RollNumberYearly(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "7", mock.lastRoll)
}

func TestReportHandlerRejectsBadTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(&reportServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports/classes/c1/terms/first", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "term", Value: "first"}}
	h.ClassTerm(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerPropagatesServiceErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(&reportServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}, nil)

	c, w := newGinContext(http.MethodGet, "/reports/students/ghost/yearly", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	h.StudentYearly(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "student not found", decodeEnvelope(t, w).Error.Message)
}

func TestReportHandlerClassTermIncludesSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportServiceMock{classTerm: []dto.TermReport{
		{ClassID: "c1", ClassName: "Form One A", Average: avg(17), Passed: true, Rank: 1},
		{ClassID: "c1", ClassName: "Form One A", Average: avg(8), Rank: 2},
	}}
	h := NewReportHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/reports/classes/c1/terms/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "term", Value: "1"}}
	h.ClassTerm(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	summary, ok := env.Meta["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["classSize"])
	assert.Equal(t, float64(50), summary["passRate"])
	assert.Equal(t, 12.5, summary["classAverage"])
}

func TestReportHandlerClassYearly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportServiceMock{classYearly: []dto.YearlyReport{{ClassID: "c1", Average: avg(12), Passed: true, Rank: 1}}}
	h := NewReportHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/reports/classes/c1/yearly", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	h.ClassYearly(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Meta, "summary")
}

func TestReportHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &exportServiceMock{file: &service.ExportFile{Filename: "class_c1_term_1.csv", ContentType: "text/csv", Payload: []byte("Rank\n1\n")}}
	h := NewReportHandler(&reportServiceMock{}, exports)

	c, w := newGinContext(http.MethodGet, "/reports/classes/c1/terms/1/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "term", Value: "1"}}
	h.ExportClassTerm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, `attachment; filename="class_c1_term_1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Rank\n1\n", w.Body.String())

	exports.err = appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	c, w = newGinContext(http.MethodGet, "/reports/classes/c1/yearly/export?format=xlsx", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	h.ExportClassYearly(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
