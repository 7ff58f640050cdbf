package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/models"
	"github.com/noah-isme/sma-report-api/internal/service"
)

type renderer struct {
	out     io.Writer
	format  string
	plain   bool
	title   lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
}

func newRenderer(out io.Writer, opts *options) *renderer {
	return &renderer{
		out:     out,
		format:  opts.format,
		plain:   opts.noColor,
		title:   lipgloss.NewStyle().Bold(true),
		pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		heading: lipgloss.NewStyle().Bold(true).Padding(0, 1),
	}
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

func (r *renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if !r.plain {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.heading
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	}
	return t.String()
}

func (r *renderer) termReport(report *dto.TermReport) error {
	if r.format == formatJSON {
		return r.writeJSON(report)
	}
	fmt.Fprintln(r.out, r.style(r.title, fmt.Sprintf("%s  %s  Term %d", models.DisplayName(report.Student), report.ClassName, report.Term)))

	rows := make([][]string, 0, len(report.Subjects))
	for _, s := range report.Subjects {
		rows = append(rows, []string{
			s.SubjectName,
			strconv.Itoa(s.Coefficient),
			score(s.Assessment1),
			score(s.Assessment2),
			score(s.Exam),
			score(s.Average),
			string(s.Grade),
		})
	}
	fmt.Fprintln(r.out, r.renderTable([]string{"Subject", "Coef", "Assess 1", "Assess 2", "Exam", "Average", "Grade"}, rows))

	fmt.Fprintf(r.out, "Average: %s  Grade: %s  Rank: %s\n", score(report.Average), report.Grade, rank(report.Rank, report.ClassSize))
	fmt.Fprintf(r.out, "Subjects passed: %d/%d  Result: %s\n", report.SubjectsPassed, report.TotalSubjects, r.result(report.Passed))
	if report.Remarks != "" {
		fmt.Fprintln(r.out, r.style(r.muted, report.Remarks))
	}
	r.warnings(report.Warnings)
	return nil
}

func (r *renderer) yearlyReport(report *dto.YearlyReport) error {
	if r.format == formatJSON {
		return r.writeJSON(report)
	}
	fmt.Fprintln(r.out, r.style(r.title, fmt.Sprintf("%s  %s  Yearly", models.DisplayName(report.Student), report.ClassName)))

	rows := make([][]string, 0, len(report.Subjects))
	for _, s := range report.Subjects {
		rows = append(rows, []string{
			s.SubjectName,
			strconv.Itoa(s.Coefficient),
			score(s.Term1Average),
			score(s.Term2Average),
			score(s.Term3Average),
			score(s.YearlyAverage),
			string(s.Grade),
		})
	}
	fmt.Fprintln(r.out, r.renderTable([]string{"Subject", "Coef", "Term 1", "Term 2", "Term 3", "Yearly", "Grade"}, rows))

	fmt.Fprintf(r.out, "Average: %s  Grade: %s  Rank: %s\n", score(report.Average), report.Grade, rank(report.Rank, report.ClassSize))
	fmt.Fprintf(r.out, "Subjects passed: %d/%d  Result: %s\n", report.SubjectsPassed, report.TotalSubjects, r.result(report.Passed))
	if report.Remarks != "" {
		fmt.Fprintln(r.out, r.style(r.muted, report.Remarks))
	}
	r.warnings(report.Warnings)
	return nil
}

func (r *renderer) classTerm(reports []dto.TermReport) error {
	summary := service.SummarizeTerm(reports)
	if r.format == formatJSON {
		return r.writeJSON(struct {
			Summary dto.ClassSummary `json:"summary"`
			Reports []dto.TermReport `json:"reports"`
		}{summary, reports})
	}
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, []string{
			strconv.Itoa(rep.Rank),
			rep.Student.Code,
			models.DisplayName(rep.Student),
			score(rep.Average),
			string(rep.Grade),
			r.result(rep.Passed),
		})
	}
	fmt.Fprintln(r.out, r.renderTable([]string{"Rank", "Code", "Student", "Average", "Grade", "Result"}, rows))
	r.summary(summary)
	return nil
}

func (r *renderer) classYearly(reports []dto.YearlyReport) error {
	summary := service.SummarizeYear(reports)
	if r.format == formatJSON {
		return r.writeJSON(struct {
			Summary dto.ClassSummary   `json:"summary"`
			Reports []dto.YearlyReport `json:"reports"`
		}{summary, reports})
	}
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, []string{
			strconv.Itoa(rep.Rank),
			rep.Student.Code,
			models.DisplayName(rep.Student),
			score(rep.Average),
			string(rep.Grade),
			r.result(rep.Passed),
		})
	}
	fmt.Fprintln(r.out, r.renderTable([]string{"Rank", "Code", "Student", "Yearly", "Grade", "Result"}, rows))
	r.summary(summary)
	return nil
}

func (r *renderer) summary(s dto.ClassSummary) {
	fmt.Fprintf(r.out, "%s: %d students, class average %s\n", s.ClassName, s.ClassSize, score(s.ClassAverage))
	fmt.Fprintf(r.out, "Passed: %d  Failed: %d  Pass rate: %.2f%%\n", s.TotalPassed, s.TotalFailed, s.PassRate)
}

func (r *renderer) warnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(r.out, r.style(r.warn, "warning: "+w))
	}
}

func (r *renderer) result(passed bool) string {
	if passed {
		return r.style(r.pass, "PASS")
	}
	return r.style(r.fail, "FAIL")
}

func score(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func rank(position, size int) string {
	if size == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", position, size)
}
