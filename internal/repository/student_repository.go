package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-api/internal/models"
)

const studentColumns = "id, code, roll_number, first_name, last_name, class_id, department_code, specialty, created_at, updated_at"

// StudentRepository reads students and their class membership.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByClassAndRollNumber returns the student holding a roll number in a class.
func (r *StudentRepository) FindByClassAndRollNumber(ctx context.Context, classID, rollNumber string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE class_id = $1 AND roll_number = $2", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, classID, rollNumber); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByClass returns the roster of a class ordered by ID.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE class_id = $1 ORDER BY id", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students by class: %w", err)
	}
	return students, nil
}

// UpdateClass moves a student to another class. It returns sql.ErrNoRows when the student does not exist.
func (r *StudentRepository) UpdateClass(ctx context.Context, id, classID string) error {
	const query = `UPDATE students SET class_id = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, classID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update student class: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student class rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
