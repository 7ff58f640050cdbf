package models

import (
	"strings"
	"time"

	"github.com/noah-isme/sma-report-api/internal/grading"
)

// Class levels. Forms one to five are lower secondary, the sixth form upper secondary.
const (
	LevelForm1      = "F1"
	LevelForm2      = "F2"
	LevelForm3      = "F3"
	LevelForm4      = "F4"
	LevelForm5      = "F5"
	LevelLowerSixth = "LSX"
	LevelUpperSixth = "USX"
)

// Class represents a classroom for one academic year.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Level        string    `db:"level" json:"level"`
	ClassTeacher *string   `db:"class_teacher" json:"class_teacher,omitempty"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Tier returns the grading tier of the class.
func (c Class) Tier() grading.Tier {
	return TierForLevel(c.Level)
}

// TierForLevel maps a class level code to its grading tier.
func TierForLevel(level string) grading.Tier {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelLowerSixth, LevelUpperSixth:
		return grading.TierAdvanced
	default:
		return grading.TierOrdinary
	}
}
