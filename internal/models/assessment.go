package models

import (
	"fmt"
	"time"

	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

// Assessment is one recorded score for a student in a subject.
type Assessment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	Term         int       `db:"term" json:"term"`
	Number       int       `db:"number" json:"number"`
	Score        float64   `db:"score" json:"score"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Assessment numbers are fixed per term: 1 and 2 in term one, 3 and 4 in
// term two, 5 (the exam) in term three.
var termNumbers = map[int][]int{
	1: {1, 2},
	2: {3, 4},
	3: {5},
}

// AssessmentNumbers lists the assessment numbers valid in term.
func AssessmentNumbers(term int) []int {
	return termNumbers[term]
}

// AssessmentSlot returns 0 for the first and 1 for the second assessment of a term.
func AssessmentSlot(term, number int) (int, error) {
	for slot, n := range termNumbers[term] {
		if n == number {
			return slot, nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrValidation,
		fmt.Sprintf("assessment %d is not valid in term %d (term 1: 1-2, term 2: 3-4, term 3: 5)", number, term))
}
