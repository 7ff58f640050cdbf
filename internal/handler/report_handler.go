package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/middleware"
	"github.com/noah-isme/sma-report-api/internal/service"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
	"github.com/noah-isme/sma-report-api/pkg/response"
)

type reportGenerator interface {
	TermReport(ctx context.Context, studentID string, term int) (*dto.TermReport, error)
	YearlyReport(ctx context.Context, studentID string) (*dto.YearlyReport, error)
	ClassTermReport(ctx context.Context, classID string, term int) ([]dto.TermReport, error)
	ClassYearlyReport(ctx context.Context, classID string) ([]dto.YearlyReport, error)
	AvailableTerms(ctx context.Context, studentID string) ([]int, error)
	TermReportByRollNumber(ctx context.Context, classID, rollNumber string, term int) (*dto.TermReport, error)
	YearlyReportByRollNumber(ctx context.Context, classID, rollNumber string) (*dto.YearlyReport, error)
}

type reportExporter interface {
	ClassTerm(ctx context.Context, classID string, term int, format string) (*service.ExportFile, error)
	ClassYearly(ctx context.Context, classID string, format string) (*service.ExportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportGenerator
	exports reportExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportGenerator, exports reportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// StudentTerm godoc
// @Summary Student term report
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Param term path int true "Term (1-3)"
// @Success 200 {object} response.Envelope{data=dto.TermReport}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id}/terms/{term} [get]
func (h *ReportHandler) StudentTerm(c *gin.Context) {
	term, ok := termParam(c)
	if !ok {
		return
	}
	report, err := h.reports.TermReport(c.Request.Context(), c.Param("id"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, middleware.ResponseMeta(c, nil))
}

// StudentYearly godoc
// @Summary Student yearly report
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope{data=dto.YearlyReport}
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id}/yearly [get]
func (h *ReportHandler) StudentYearly(c *gin.Context) {
	report, err := h.reports.YearlyReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, middleware.ResponseMeta(c, nil))
}

// StudentTerms godoc
// @Summary Terms with recorded assessments
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope{data=dto.AvailableTerms}
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id}/terms [get]
func (h *ReportHandler) StudentTerms(c *gin.Context) {
	studentID := c.Param("id")
	terms, err := h.reports.AvailableTerms(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AvailableTerms{StudentID: studentID, Terms: terms}, middleware.ResponseMeta(c, nil))
}

// RollNumberTerm godoc
// @Summary Student term report by roll number
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Param roll path string true "Roll number"
// @Param term path int true "Term (1-3)"
// @Success 200 {object} response.Envelope{data=dto.TermReport}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/classes/{id}/roll/{roll}/terms/{term} [get]
func (h *ReportHandler) RollNumberTerm(c *gin.Context) {
	term, ok := termParam(c)
	if !ok {
		return
	}
	report, err := h.reports.TermReportByRollNumber(c.Request.Context(), c.Param("id"), c.Param("roll"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, middleware.ResponseMeta(c, nil))
}

// RollNumberYearly godoc
// @Summary Student yearly report by roll number
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Param roll path string true "Roll number"
// @Success 200 {object} response.Envelope{data=dto.YearlyReport}
// @Failure 404 {object} response.Envelope
// @Router /reports/classes/{id}/roll/{roll}/yearly [get]
func (h *ReportHandler) RollNumberYearly(c *gin.Context) {
	report, err := h.reports.YearlyReportByRollNumber(c.Request.Context(), c.Param("id"), c.Param("roll"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, middleware.ResponseMeta(c, nil))
}

// ClassTerm godoc
// @Summary Ranked class term report
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Param term path int true "Term (1-3)"
// @Success 200 {object} response.Envelope{data=[]dto.TermReport}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/classes/{id}/terms/{term} [get]
func (h *ReportHandler) ClassTerm(c *gin.Context) {
	term, ok := termParam(c)
	if !ok {
		return
	}
	reports, err := h.reports.ClassTermReport(c.Request.Context(), c.Param("id"), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, middleware.ResponseMeta(c, map[string]interface{}{
		"summary": service.SummarizeTerm(reports),
	}))
}

// ClassYearly godoc
// @Summary Ranked class yearly report
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope{data=[]dto.YearlyReport}
// @Failure 404 {object} response.Envelope
// @Router /reports/classes/{id}/yearly [get]
func (h *ReportHandler) ClassYearly(c *gin.Context) {
	reports, err := h.reports.ClassYearlyReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, middleware.ResponseMeta(c, map[string]interface{}{
		"summary": service.SummarizeYear(reports),
	}))
}

// ExportClassTerm godoc
// @Summary Download a class term report
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Class ID"
// @Param term path int true "Term (1-3)"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/classes/{id}/terms/{term}/export [get]
func (h *ReportHandler) ExportClassTerm(c *gin.Context) {
	term, ok := termParam(c)
	if !ok {
		return
	}
	file, err := h.exports.ClassTerm(c.Request.Context(), c.Param("id"), term, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// ExportClassYearly godoc
// @Summary Download a class yearly report
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Class ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /reports/classes/{id}/yearly/export [get]
func (h *ReportHandler) ExportClassYearly(c *gin.Context) {
	file, err := h.exports.ClassYearly(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

func termParam(c *gin.Context) (int, bool) {
	term, err := strconv.Atoi(c.Param("term"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "term must be a number"))
		return 0, false
	}
	return term, true
}
