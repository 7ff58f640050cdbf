// Package grading holds the numeric rules used to turn assessment scores into
// averages, letter grades, pass/fail decisions and class rankings. Every
// function here is pure; callers supply validated data and receive values.
package grading

import (
	"fmt"
	"math"

	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

const (
	// MinScore and MaxScore bound every score and average.
	MinScore = 0.0
	MaxScore = 20.0

	// PassMark is the average at which both tiers start passing.
	PassMark = 10.0

	// DefaultCoefficient applies to subjects without a recorded coefficient.
	DefaultCoefficient = 1
)

// Tier classifies a classroom for grading purposes.
type Tier string

const (
	TierOrdinary Tier = "ORDINARY"
	TierAdvanced Tier = "ADVANCED"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierOrdinary || t == TierAdvanced
}

// Grade is a letter grade.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeO Grade = "O"
	GradeF Grade = "F"
	GradeU Grade = "U"
)

type band struct {
	min   float64
	grade Grade
}

var (
	ordinaryBands = []band{{18, GradeA}, {15, GradeB}, {10, GradeC}, {5, GradeD}}
	advancedBands = []band{{18, GradeA}, {16, GradeB}, {14, GradeC}, {12, GradeD}, {10, GradeE}, {8, GradeO}}

	passingGrades = map[Tier]map[Grade]bool{
		TierOrdinary: {GradeA: true, GradeB: true, GradeC: true},
		TierAdvanced: {GradeA: true, GradeB: true, GradeC: true, GradeD: true, GradeE: true},
	}
)

// ValidateTerm rejects terms outside 1..3.
func ValidateTerm(term int) error {
	if term < 1 || term > 3 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("term must be 1, 2 or 3, got %d", term))
	}
	return nil
}

// ValidateScore rejects scores outside [0, 20]. Scores are never clamped.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score %v outside 0-20", score))
	}
	return nil
}

// ValidateCoefficient rejects non-positive coefficients.
func ValidateCoefficient(coefficient int) error {
	if coefficient <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("coefficient must be positive, got %d", coefficient))
	}
	return nil
}

// SubjectAverage computes a subject's term average.
//
// Terms 1 and 2 average the two assessments, counting an absent one as zero.
// Term 3 uses the exam score passed as a; b must be nil.
func SubjectAverage(term int, a, b *float64) (float64, error) {
	if err := ValidateTerm(term); err != nil {
		return 0, err
	}
	for _, s := range []*float64{a, b} {
		if s == nil {
			continue
		}
		if err := ValidateScore(*s); err != nil {
			return 0, err
		}
	}
	if term == 3 {
		if b != nil {
			return 0, appErrors.Clone(appErrors.ErrValidation, "term 3 takes a single exam score")
		}
		return Round2(valueOr(a, 0)), nil
	}
	return Round2((valueOr(a, 0) + valueOr(b, 0)) / 2), nil
}

// LetterGrade bands an average for the tier. A nil average gets the lowest grade.
func LetterGrade(average *float64, tier Tier) Grade {
	bands, lowest := ordinaryBands, GradeU
	if tier == TierAdvanced {
		bands, lowest = advancedBands, GradeF
	}
	if average == nil {
		return lowest
	}
	for _, b := range bands {
		if *average >= b.min {
			return b.grade
		}
	}
	return lowest
}

// IsPassing reports whether grade passes in tier. O never passes.
func IsPassing(grade Grade, tier Tier) bool {
	return passingGrades[tier][grade]
}

// SubjectScore is the minimum a weighted average needs from a subject.
type SubjectScore struct {
	Average     *float64
	Coefficient int
}

// WeightedTermAverage is Σ(average×coefficient)/Σcoefficient over subjects with
// an average. It is nil when no subject carries data and 0 when the
// coefficients of the subjects with data sum to zero.
func WeightedTermAverage(subjects []SubjectScore) *float64 {
	var (
		total   float64
		weights int
		counted int
	)
	for _, s := range subjects {
		if s.Average == nil {
			continue
		}
		total += *s.Average * float64(s.Coefficient)
		weights += s.Coefficient
		counted++
	}
	if counted == 0 {
		return nil
	}
	if weights == 0 {
		zero := 0.0
		return &zero
	}
	avg := Round2(total / float64(weights))
	return &avg
}

// MeanOfPresent averages the non-nil values, returning nil when none exist.
func MeanOfPresent(values ...*float64) *float64 {
	var (
		sum   float64
		count int
	)
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	mean := Round2(sum / float64(count))
	return &mean
}

// PassRate is the share of passed subjects in percent.
func PassRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(passed) * 100 / float64(total))
}

// FormatAverage renders an average as "12.50/20".
func FormatAverage(average *float64) string {
	return fmt.Sprintf("%.2f/20", valueOr(average, 0))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
