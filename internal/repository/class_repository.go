package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-api/internal/models"
)

const classColumns = "id, name, level, class_teacher, academic_year, created_at, updated_at"

// ClassRepository reads classrooms. The tier used for grading derives from the level column.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class by ID. A missing class surfaces as sql.ErrNoRows.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}
