package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// DeleteBatch removes at most limit submissions for the form and reports how
// many went away. Callers loop until it returns zero; the bounded batch caps
// transaction size on forms with millions of rows.
func (r *SubmissionRepository) DeleteBatch(ctx context.Context, formUID string, limit int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM submissions
		 WHERE id IN (
		     SELECT id FROM submissions WHERE form_uid = $1 ORDER BY id LIMIT $2
		 )`,
		formUID, limit)
	if err != nil {
		return 0, fmt.Errorf("delete submission batch: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SubmissionRepository) Count(ctx context.Context, formUID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE form_uid = $1`, formUID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}
