package models

import (
	"time"

	"github.com/noah-isme/sma-report-api/internal/grading"
)

// Subject represents an academic subject with its weighting coefficient.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Coefficient *int      `db:"coefficient" json:"coefficient,omitempty"`
	Optional    bool      `db:"optional" json:"optional"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Weight returns the coefficient, defaulting to one when unset.
func (s Subject) Weight() int {
	if s.Coefficient == nil {
		return grading.DefaultCoefficient
	}
	return *s.Coefficient
}
