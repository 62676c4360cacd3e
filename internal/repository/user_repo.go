package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, first_name, last_name,
	is_active, is_placeholder, storage_bytes_used, submission_count, date_joined`

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// SetActive flips the deactivated flag on the given users. Used when
// accounts enter or leave the trash.
func (r *UserRepository) SetActive(ctx context.Context, ids []string, active bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2 WHERE id = ANY($1)`, ids, active)
	if err != nil {
		return fmt.Errorf("toggle user active flag: %w", err)
	}
	return nil
}

// Anonymize turns the row into an inert placeholder: the username survives
// to block re-registration, everything else is scrubbed.
func (r *UserRepository) Anonymize(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET email = '', first_name = '', last_name = '',
		     is_active = FALSE, is_placeholder = TRUE
		 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("anonymize user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Delete removes the user row entirely. Already-gone rows are not an error:
// a re-run of the account handler must be a no-op here.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// FoldUsageCounters moves the user's usage counters into the catch-all
// no-owner bucket and zeroes the source, in one transaction. Accounting has
// to survive owner deletion, so this runs before the row is removed or
// anonymized.
func (r *UserRepository) FoldUsageCounters(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin fold counters: %w", err)
	}
	defer tx.Rollback(ctx)

	var storageBytes, submissions int64
	err = tx.QueryRow(ctx,
		`SELECT storage_bytes_used, submission_count FROM users WHERE id = $1 FOR UPDATE`,
		id).Scan(&storageBytes, &submissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read usage counters: %w", err)
	}

	if storageBytes == 0 && submissions == 0 {
		return tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, username, is_active, is_placeholder, storage_bytes_used, submission_count)
		 VALUES (gen_random_uuid(), $1, FALSE, TRUE, $2, $3)
		 ON CONFLICT (username) DO UPDATE
		 SET storage_bytes_used = users.storage_bytes_used + EXCLUDED.storage_bytes_used,
		     submission_count = users.submission_count + EXCLUDED.submission_count`,
		model.NoOwnerUsername, storageBytes, submissions)
	if err != nil {
		return fmt.Errorf("fold counters into no-owner bucket: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET storage_bytes_used = 0, submission_count = 0 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("zero folded counters: %w", err)
	}

	return tx.Commit(ctx)
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsPlaceholder, &u.StorageBytesUsed, &u.SubmissionCount,
		&u.DateJoined)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
