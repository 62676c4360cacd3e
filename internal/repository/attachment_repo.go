package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type AttachmentRepository struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepository(pool *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (model.Attachment, error) {
	var a model.Attachment
	var submissionID *int64
	err := r.pool.QueryRow(ctx,
		`SELECT id, submission_id, storage_key, delete_status
		 FROM attachments WHERE id = $1`, id).
		Scan(&a.ID, &submissionID, &a.StorageKey, &a.DeleteStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Attachment{}, model.ErrAttachmentNotFound
	}
	if err != nil {
		return model.Attachment{}, fmt.Errorf("find attachment: %w", err)
	}
	if submissionID != nil {
		a.SubmissionID = fmt.Sprintf("%d", *submissionID)
	}
	return a, nil
}

// MarkDeleted flips the visible delete status. The handler calls this only
// after the storage object is actually gone, so the storage key is never
// lost for a file that failed to delete.
func (r *AttachmentRepository) MarkDeleted(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attachments SET delete_status = $2 WHERE id = $1`,
		id, model.AttachmentDeleted)
	if err != nil {
		return fmt.Errorf("mark attachment deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAttachmentNotFound
	}
	return nil
}
