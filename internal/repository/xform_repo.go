package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type XFormRepository struct {
	pool *pgxpool.Pool
}

func NewXFormRepository(pool *pgxpool.Pool) *XFormRepository {
	return &XFormRepository{pool: pool}
}

func (r *XFormRepository) FindByFormUID(ctx context.Context, formUID string) (model.XForm, error) {
	var f model.XForm
	err := r.pool.QueryRow(ctx,
		`SELECT id, form_uid, owner_username, downloadable, pending_delete
		 FROM xforms WHERE form_uid = $1`, formUID).
		Scan(&f.ID, &f.FormUID, &f.OwnerUsername, &f.Downloadable, &f.PendingDelete)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.XForm{}, model.ErrXFormNotFound
	}
	if err != nil {
		return model.XForm{}, fmt.Errorf("find xform: %w", err)
	}
	return f, nil
}

// ToggleFlags flips the user-visible downloadable/pending_delete pair on the
// given forms. Trashing a project sets (false, true); put-back restores
// (true, false).
func (r *XFormRepository) ToggleFlags(ctx context.Context, formUIDs []string, downloadable bool, pendingDelete bool) error {
	if len(formUIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE xforms SET downloadable = $2, pending_delete = $3 WHERE form_uid = ANY($1)`,
		formUIDs, downloadable, pendingDelete)
	if err != nil {
		return fmt.Errorf("toggle xform flags: %w", err)
	}
	return nil
}

func (r *XFormRepository) Delete(ctx context.Context, formUID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM xforms WHERE form_uid = $1`, formUID); err != nil {
		return fmt.Errorf("delete xform: %w", err)
	}
	return nil
}
