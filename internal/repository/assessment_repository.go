package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-api/internal/models"
)

const qualifiedAssessmentColumns = "a.id, a.student_id, a.subject_id, a.term, a.number, a.score, a.academic_year, a.created_at, a.updated_at"

// Reads are scoped to the academic year of the student's current class so
// earlier years kept under the same slot never mix into a report.
const (
	assessmentYearJoin = "FROM assessments a JOIN students s ON s.id = a.student_id JOIN classes c ON c.id = s.class_id"
	currentYearFilter  = "a.academic_year = c.academic_year"
)

// AssessmentRepository manages persistence for assessment scores.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs a new assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListByStudentAndTerm returns a student's assessments for a term in the
// academic year of the student's current class.
func (r *AssessmentRepository) ListByStudentAndTerm(ctx context.Context, studentID string, term int) ([]models.Assessment, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.student_id = $1 AND a.term = $2 AND %s ORDER BY a.subject_id, a.number",
		qualifiedAssessmentColumns, assessmentYearJoin, currentYearFilter)
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, studentID, term); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// ListByStudentsAndTerm returns assessments for many students keyed by student ID.
// Every requested student has an entry, empty when nothing was recorded.
func (r *AssessmentRepository) ListByStudentsAndTerm(ctx context.Context, studentIDs []string, term int) (map[string][]models.Assessment, error) {
	result := make(map[string][]models.Assessment, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
		result[id] = []models.Assessment{}
	}
	args[len(args)-1] = term
	query := fmt.Sprintf("SELECT %s %s WHERE a.student_id IN (%s) AND a.term = $%d AND %s ORDER BY a.student_id, a.subject_id, a.number",
		qualifiedAssessmentColumns, assessmentYearJoin, strings.Join(placeholders, ","), len(args), currentYearFilter)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments for roster: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var assessment models.Assessment
		if err := rows.StructScan(&assessment); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		result[assessment.StudentID] = append(result[assessment.StudentID], assessment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return result, nil
}

// ListTermsByStudent returns the terms, ascending, in which a student has at
// least one assessment for the academic year of their current class.
func (r *AssessmentRepository) ListTermsByStudent(ctx context.Context, studentID string) ([]int, error) {
	query := fmt.Sprintf("SELECT DISTINCT a.term %s WHERE a.student_id = $1 AND %s ORDER BY a.term", assessmentYearJoin, currentYearFilter)
	var terms []int
	if err := r.db.SelectContext(ctx, &terms, query, studentID); err != nil {
		return nil, fmt.Errorf("list assessment terms: %w", err)
	}
	return terms, nil
}

// Upsert inserts or replaces the score of an assessment slot. Slots are keyed
// per academic year; an empty year is filled from the student's class.
func (r *AssessmentRepository) Upsert(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments (id, student_id, subject_id, term, number, score, academic_year, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :term, :number, :score,
            COALESCE(NULLIF(:academic_year, ''), (SELECT c.academic_year FROM students s JOIN classes c ON c.id = s.class_id WHERE s.id = :student_id), ''),
            :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, term, number, academic_year)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
        RETURNING academic_year`
	rows, err := r.db.NamedQueryContext(ctx, query, assessment)
	if err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&assessment.AcademicYear); err != nil {
			return fmt.Errorf("scan assessment year: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}
