package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository allocates values from PostgreSQL sequences so that
// concurrent service instances never hand out the same number.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs a sequence repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next returns the next value of the named sequence.
func (r *SequenceRepository) Next(ctx context.Context, sequence string) (int64, error) {
	var value int64
	if err := r.db.GetContext(ctx, &value, "SELECT nextval($1::regclass)", sequence); err != nil {
		return 0, fmt.Errorf("next value of %s: %w", sequence, err)
	}
	return value, nil
}
