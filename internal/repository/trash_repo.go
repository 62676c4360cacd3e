package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type TrashRepository struct {
	pool *pgxpool.Pool
}

func NewTrashRepository(pool *pgxpool.Pool) *TrashRepository {
	return &TrashRepository{pool: pool}
}

const trashColumns = `id, kind, subject_id, subject_name, status,
	requested_by_id, requested_by_name, grace_period_days,
	empty_manually, retain_placeholder, metadata, job_id,
	date_created, date_modified`

// CreateWithJob inserts the ledger entry, its scheduled job and the in_trash
// audit row in a single transaction so none of the three can exist without
// the others. A second active entry for the same subject fails with
// ErrEntryExists.
func (r *TrashRepository) CreateWithJob(ctx context.Context, entry model.TrashEntry, job model.ScheduledJob, audit model.AuditEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create trash entry: %w", err)
	}
	defer tx.Rollback(ctx)

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO trash_entries
		 (id, kind, subject_id, subject_name, status,
		  requested_by_id, requested_by_name, grace_period_days,
		  empty_manually, retain_placeholder, metadata, job_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.Kind, entry.SubjectID, entry.SubjectName, entry.Status,
		entry.RequestedBy.UserID, entry.RequestedBy.Username, entry.GracePeriodDays,
		entry.EmptyManually, entry.RetainPlaceholder, metadata, entry.JobID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEntryExists
		}
		return fmt.Errorf("create trash entry: %w", err)
	}

	if err := insertJob(ctx, tx, job); err != nil {
		return err
	}

	if err := insertAuditEntry(ctx, tx, audit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *TrashRepository) FindByID(ctx context.Context, id string) (model.TrashEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+trashColumns+` FROM trash_entries WHERE id = $1`, id)
	return scanTrashEntry(row)
}

func (r *TrashRepository) FindBySubject(ctx context.Context, kind model.TrashKind, subjectID string) (model.TrashEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+trashColumns+` FROM trash_entries WHERE kind = $1 AND subject_id = $2`,
		kind, subjectID)
	return scanTrashEntry(row)
}

// List returns ledger entries, newest first, optionally filtered by status.
func (r *TrashRepository) List(ctx context.Context, status model.TrashStatus) ([]model.TrashEntry, error) {
	query := `SELECT ` + trashColumns + ` FROM trash_entries`
	args := make([]any, 0, 1)
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY date_created DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trash entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.TrashEntry, 0)
	for rows.Next() {
		entry, err := scanTrashEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AcquireForExecution locks the ledger row and claims it for a handler run.
// It returns ok=false without mutating anything when the entry is already
// in progress (duplicate delivery) or no longer exists (already completed):
// both are idempotent no-ops for the caller.
func (r *TrashRepository) AcquireForExecution(ctx context.Context, id string) (model.TrashEntry, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.TrashEntry{}, false, fmt.Errorf("begin acquire: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+trashColumns+` FROM trash_entries WHERE id = $1 FOR UPDATE`, id)
	entry, err := scanTrashEntry(row)
	if errors.Is(err, model.ErrEntryNotFound) {
		return model.TrashEntry{}, false, nil
	}
	if err != nil {
		return model.TrashEntry{}, false, err
	}

	if entry.Status == model.StatusInProgress {
		return model.TrashEntry{}, false, nil
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`UPDATE trash_entries SET status = $2, date_modified = $3 WHERE id = $1`,
		id, model.StatusInProgress, now)
	if err != nil {
		return model.TrashEntry{}, false, fmt.Errorf("claim trash entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.TrashEntry{}, false, fmt.Errorf("commit acquire: %w", err)
	}

	entry.Status = model.StatusInProgress
	entry.DateModified = now
	return entry, true, nil
}

func (r *TrashRepository) MarkRetry(ctx context.Context, id string, errText string) error {
	return r.markStatus(ctx, id, model.StatusRetry, errText)
}

func (r *TrashRepository) MarkFailed(ctx context.Context, id string, errText string) error {
	return r.markStatus(ctx, id, model.StatusFailed, errText)
}

func (r *TrashRepository) markStatus(ctx context.Context, id string, status model.TrashStatus, errText string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trash_entries
		 SET status = $2,
		     metadata = metadata || jsonb_build_object('failure_error', $3::text),
		     date_modified = now()
		 WHERE id = $1`,
		id, status, errText)
	if err != nil {
		return fmt.Errorf("mark trash entry %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEntryNotFound
	}
	return nil
}

// Complete removes the ledger entry together with its scheduled job and
// writes the remove audit row, all in one transaction.
func (r *TrashRepository) Complete(ctx context.Context, id string, audit model.AuditEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback(ctx)

	var jobID *string
	err = tx.QueryRow(ctx,
		`DELETE FROM trash_entries WHERE id = $1 RETURNING job_id`, id).Scan(&jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already completed by an earlier run.
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete trash entry: %w", err)
	}

	if jobID != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, *jobID); err != nil {
			return fmt.Errorf("delete scheduled job: %w", err)
		}
	}

	if err := insertAuditEntry(ctx, tx, audit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Cancel implements put-back: it deletes a still-pending entry and its job
// atomically and writes the put_back audit row. Once the handler has started
// the entry is no longer pending and cancellation is rejected with
// ErrTaskInProgress.
func (r *TrashRepository) Cancel(ctx context.Context, kind model.TrashKind, subjectID string, audit model.AuditEntry) (model.TrashEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.TrashEntry{}, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+trashColumns+` FROM trash_entries
		 WHERE kind = $1 AND subject_id = $2 FOR UPDATE`,
		kind, subjectID)
	entry, err := scanTrashEntry(row)
	if err != nil {
		return model.TrashEntry{}, err
	}

	if entry.Status != model.StatusPending {
		return model.TrashEntry{}, model.ErrTaskInProgress
	}

	if _, err := tx.Exec(ctx, `DELETE FROM trash_entries WHERE id = $1`, entry.ID); err != nil {
		return model.TrashEntry{}, fmt.Errorf("delete trash entry: %w", err)
	}

	if entry.JobID != "" {
		if _, err := tx.Exec(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, entry.JobID); err != nil {
			return model.TrashEntry{}, fmt.Errorf("delete scheduled job: %w", err)
		}
	}

	if err := insertAuditEntry(ctx, tx, audit); err != nil {
		return model.TrashEntry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.TrashEntry{}, fmt.Errorf("commit cancel: %w", err)
	}

	return entry, nil
}

// ListStuckInProgress returns entries that claimed in_progress longer than
// threshold ago. A crashed worker leaves its entry in this state; the task
// restarter resets and re-enqueues them.
func (r *TrashRepository) ListStuckInProgress(ctx context.Context, threshold time.Duration) ([]model.TrashEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+trashColumns+` FROM trash_entries
		 WHERE status = $1 AND date_modified < now() - $2::interval`,
		model.StatusInProgress, threshold.String())
	if err != nil {
		return nil, fmt.Errorf("list stuck entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.TrashEntry, 0)
	for rows.Next() {
		entry, err := scanTrashEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanTrashEntry(row pgx.Row) (model.TrashEntry, error) {
	var entry model.TrashEntry
	var metadata []byte
	var jobID *string

	err := row.Scan(
		&entry.ID, &entry.Kind, &entry.SubjectID, &entry.SubjectName, &entry.Status,
		&entry.RequestedBy.UserID, &entry.RequestedBy.Username, &entry.GracePeriodDays,
		&entry.EmptyManually, &entry.RetainPlaceholder, &metadata, &jobID,
		&entry.DateCreated, &entry.DateModified)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.TrashEntry{}, model.ErrEntryNotFound
	}
	if err != nil {
		return model.TrashEntry{}, fmt.Errorf("scan trash entry: %w", err)
	}

	if jobID != nil {
		entry.JobID = *jobID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return model.TrashEntry{}, fmt.Errorf("decode trash metadata: %w", err)
		}
	}
	return entry, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal trash metadata: %w", err)
	}
	return data, nil
}
