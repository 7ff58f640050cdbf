package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/grading"
	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
	"github.com/noah-isme/sma-report-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type classReportSource interface {
	ClassTermReport(ctx context.Context, classID string, term int) ([]dto.TermReport, error)
	ClassYearlyReport(ctx context.Context, classID string) ([]dto.YearlyReport, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered class report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders class reports as CSV or PDF tables.
type ExportService struct {
	reports classReportSource
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reports classReportSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger}
}

// ClassTerm renders the ranked term report of a class.
func (s *ExportService) ClassTerm(ctx context.Context, classID string, term int, format string) (*ExportFile, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ClassTermReport(ctx, classID, term)
	if err != nil {
		return nil, err
	}
	dataset := termDataset(reports)
	name := ""
	if len(reports) > 0 {
		name = reports[0].ClassName
	}
	title := fmt.Sprintf("%s term %d report", classLabel(classID, name), term)
	return s.render(dataset, title, fmt.Sprintf("class_%s_term_%d", classID, term), format)
}

// ClassYearly renders the ranked yearly report of a class.
func (s *ExportService) ClassYearly(ctx context.Context, classID string, format string) (*ExportFile, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ClassYearlyReport(ctx, classID)
	if err != nil {
		return nil, err
	}
	dataset := yearlyDataset(reports)
	name := ""
	if len(reports) > 0 {
		name = reports[0].ClassName
	}
	title := fmt.Sprintf("%s yearly report", classLabel(classID, name))
	return s.render(dataset, title, fmt.Sprintf("class_%s_yearly", classID), format)
}

func (s *ExportService) render(dataset export.Dataset, title, basename, format string) (*ExportFile, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	default:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		s.logger.Error("failed to render export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    sanitizeFilename(basename) + "." + format,
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func normalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", ExportFormatPDF:
		return ExportFormatPDF, nil
	case ExportFormatCSV:
		return f, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func classLabel(classID, name string) string {
	if name != "" {
		return name
	}
	return "Class " + classID
}

func termDataset(reports []dto.TermReport) export.Dataset {
	columns := subjectColumns(reports)
	headers := append([]string{"Rank", "Code", "Student"}, columns...)
	headers = append(headers, "Average", "Grade", "Result", "Remarks")

	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		row := map[string]string{
			"Rank":    strconv.Itoa(r.Rank),
			"Code":    r.Student.Code,
			"Student": models.DisplayName(r.Student),
			"Average": averageCell(r.Average),
			"Grade":   string(r.Grade),
			"Result":  result(r.Passed),
			"Remarks": r.Remarks,
		}
		for _, col := range columns {
			row[col] = scoreCell(nil)
		}
		for _, sr := range r.Subjects {
			row[sr.SubjectName] = scoreCell(sr.Average)
		}
		rows = append(rows, row)
	}
	summary := SummarizeTerm(reports)
	return export.Dataset{Headers: headers, Rows: rows, Summary: summaryLines(summary)}
}

func yearlyDataset(reports []dto.YearlyReport) export.Dataset {
	headers := []string{"Rank", "Code", "Student", "Term 1", "Term 2", "Term 3", "Average", "Grade", "Result", "Remarks"}
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		row := map[string]string{
			"Rank":    strconv.Itoa(r.Rank),
			"Code":    r.Student.Code,
			"Student": models.DisplayName(r.Student),
			"Average": averageCell(r.Average),
			"Grade":   string(r.Grade),
			"Result":  result(r.Passed),
			"Remarks": r.Remarks,
		}
		for _, term := range terms {
			row[fmt.Sprintf("Term %d", term)] = scoreCell(nil)
		}
		for _, ts := range r.Terms {
			row[fmt.Sprintf("Term %d", ts.Term)] = scoreCell(ts.Average)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows, Summary: summaryLines(SummarizeYear(reports))}
}

// subjectColumns lists every subject that appears on any report of the class.
func subjectColumns(reports []dto.TermReport) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, r := range reports {
		for _, sr := range r.Subjects {
			if _, ok := seen[sr.SubjectName]; ok {
				continue
			}
			seen[sr.SubjectName] = struct{}{}
			columns = append(columns, sr.SubjectName)
		}
	}
	sort.Strings(columns)
	return columns
}

func summaryLines(summary dto.ClassSummary) []string {
	return []string{
		fmt.Sprintf("Class size: %d", summary.ClassSize),
		fmt.Sprintf("Class average: %s", grading.FormatAverage(summary.ClassAverage)),
		fmt.Sprintf("Passed: %d  Failed: %d  Pass rate: %.2f%%", summary.TotalPassed, summary.TotalFailed, summary.PassRate),
	}
}

func scoreCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func averageCell(v *float64) string {
	if v == nil {
		return scoreCell(nil)
	}
	return grading.FormatAverage(v)
}

func result(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	cleaned := replacer.Replace(raw)
	if len(cleaned) > 100 {
		return cleaned[:100]
	}
	return cleaned
}
