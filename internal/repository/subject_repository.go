package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-api/internal/models"
)

// SubjectRepository reads subject metadata.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, coefficient, optional, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByIDs returns the subjects matching ids. Unknown IDs are skipped.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT id, code, name, coefficient, optional, created_at, updated_at FROM subjects WHERE id IN (%s) ORDER BY name, id", strings.Join(placeholders, ","))
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("find subjects: %w", err)
	}
	return subjects, nil
}
