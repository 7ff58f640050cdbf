package dto

import (
	"github.com/noah-isme/sma-report-api/internal/grading"
	"github.com/noah-isme/sma-report-api/internal/models"
)

// StudentSummary identifies the student a report belongs to.
type StudentSummary = models.StudentRef

// SubjectReport carries one subject's components and derived grade for a term.
type SubjectReport struct {
	SubjectID   string        `json:"subjectId"`
	SubjectName string        `json:"subjectName"`
	Coefficient int           `json:"coefficient"`
	Assessment1 *float64      `json:"assessment1,omitempty"`
	Assessment2 *float64      `json:"assessment2,omitempty"`
	Exam        *float64      `json:"exam,omitempty"`
	Average     *float64      `json:"average"`
	Grade       grading.Grade `json:"grade"`
	Passed      bool          `json:"passed"`
}

// AvailableTerms lists the terms a student has recorded assessments for.
type AvailableTerms struct {
	StudentID string `json:"studentId"`
	Terms     []int  `json:"terms"`
}

// TermReport is a student's result for one term, ranked against the class.
// A nil Average means no assessment was recorded, which differs from a zero.
type TermReport struct {
	Student          StudentSummary  `json:"student"`
	ClassID          string          `json:"classId"`
	ClassName        string          `json:"className"`
	Tier             grading.Tier    `json:"tier"`
	AcademicYear     string          `json:"academicYear,omitempty"`
	Term             int             `json:"term"`
	Subjects         []SubjectReport `json:"subjects"`
	Average          *float64        `json:"average"`
	FormattedAverage string          `json:"formattedAverage"`
	Grade            grading.Grade   `json:"grade"`
	Rank             int             `json:"rank"`
	ClassSize        int             `json:"classSize"`
	Passed           bool            `json:"passed"`
	SubjectsPassed   int             `json:"subjectsPassed"`
	TotalSubjects    int             `json:"totalSubjects"`
	PassRate         float64         `json:"passRate"`
	Status           string          `json:"status"`
	Remarks          string          `json:"remarks"`
	Action           string          `json:"action"`
	HasData          bool            `json:"hasData"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// TermSummary is the per-term snapshot embedded in a yearly report.
type TermSummary struct {
	Term             int      `json:"term"`
	Average          *float64 `json:"average"`
	FormattedAverage string   `json:"formattedAverage"`
	Rank             *int     `json:"rank,omitempty"`
	Remarks          string   `json:"remarks"`
	Passed           bool     `json:"passed"`
	HasData          bool     `json:"hasData"`
}

// YearlySubjectReport rolls a subject up across the terms that have data.
type YearlySubjectReport struct {
	SubjectName   string        `json:"subjectName"`
	Coefficient   int           `json:"coefficient"`
	Term1Average  *float64      `json:"term1Average"`
	Term2Average  *float64      `json:"term2Average"`
	Term3Average  *float64      `json:"term3Average"`
	YearlyAverage *float64      `json:"yearlyAverage"`
	Grade         grading.Grade `json:"grade"`
	Passed        bool          `json:"passed"`
}

// YearlyReport combines up to three term reports.
type YearlyReport struct {
	Student          StudentSummary        `json:"student"`
	ClassID          string                `json:"classId"`
	ClassName        string                `json:"className"`
	Tier             grading.Tier          `json:"tier"`
	AcademicYear     string                `json:"academicYear,omitempty"`
	Average          *float64              `json:"average"`
	FormattedAverage string                `json:"formattedAverage"`
	Grade            grading.Grade         `json:"grade"`
	Rank             int                   `json:"rank"`
	ClassSize        int                   `json:"classSize"`
	Passed           bool                  `json:"passed"`
	SubjectsPassed   int                   `json:"subjectsPassed"`
	TotalSubjects    int                   `json:"totalSubjects"`
	PassRate         float64               `json:"passRate"`
	Remarks          string                `json:"remarks"`
	Action           string                `json:"action"`
	Subjects         []YearlySubjectReport `json:"subjects"`
	Terms            []TermSummary         `json:"terms"`
	HasData          bool                  `json:"hasData"`
	Warnings         []string              `json:"warnings,omitempty"`
}

// ClassSummary aggregates a class report.
type ClassSummary struct {
	ClassID      string   `json:"classId"`
	ClassName    string   `json:"className"`
	ClassSize    int      `json:"classSize"`
	ClassAverage *float64 `json:"classAverage"`
	PassRate     float64  `json:"passRate"`
	TotalPassed  int      `json:"totalPassed"`
	TotalFailed  int      `json:"totalFailed"`
}

// GradePreview answers a standalone grade lookup for a single score.
type GradePreview struct {
	Score   float64       `json:"score"`
	Tier    grading.Tier  `json:"tier"`
	Grade   grading.Grade `json:"grade"`
	Passed  bool          `json:"passed"`
	Status  string        `json:"status"`
	Remarks string        `json:"remarks"`
}
