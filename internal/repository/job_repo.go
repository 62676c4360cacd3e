package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `id, name, trash_id, clocked_at, enabled, status,
	attempts, max_attempts, date_created, date_modified`

func insertJob(ctx context.Context, q Querier, job model.ScheduledJob) error {
	_, err := q.Exec(ctx,
		`INSERT INTO scheduled_jobs
		 (id, name, trash_id, clocked_at, enabled, status, attempts, max_attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.Name, job.TrashID, job.ClockedAt, job.Enabled, job.Status,
		job.Attempts, job.MaxAttempts)
	if err != nil {
		return fmt.Errorf("create scheduled job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (model.ScheduledJob, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM scheduled_jobs WHERE id = $1`, id)
	return scanJob(row)
}

// ClaimDue atomically flips due jobs from scheduled to queued and returns
// them. SKIP LOCKED keeps concurrent pollers from claiming the same rows,
// although the poll loop is normally serialized by an advisory lock anyway.
func (r *JobRepository) ClaimDue(ctx context.Context, limit int) ([]model.ScheduledJob, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE scheduled_jobs SET status = $1, date_modified = now()
		 WHERE id IN (
		     SELECT id FROM scheduled_jobs
		     WHERE enabled AND status = $2 AND clocked_at <= now()
		     ORDER BY clocked_at
		     LIMIT $3
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns,
		model.JobQueued, model.JobScheduled, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// Reschedule moves a job back to scheduled with a new firing time and a
// bumped attempt counter, returning the updated row so the caller can check
// the attempt budget.
func (r *JobRepository) Reschedule(ctx context.Context, id string, clockedAt time.Time) (model.ScheduledJob, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE scheduled_jobs
		 SET status = $2, clocked_at = $3, attempts = attempts + 1, date_modified = now()
		 WHERE id = $1
		 RETURNING `+jobColumns,
		id, model.JobScheduled, clockedAt)
	return scanJob(row)
}

// MarkFailed disables a job without deleting it, so operators can inspect
// the row and re-enable it manually.
func (r *JobRepository) MarkFailed(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scheduled_jobs
		 SET enabled = FALSE, status = $2, date_modified = now()
		 WHERE id = $1`,
		id, model.JobFailed)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

// ResetForRetry re-arms a job for an immediate manual re-run with a fresh
// attempt budget.
func (r *JobRepository) ResetForRetry(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scheduled_jobs
		 SET enabled = TRUE, status = $2, clocked_at = now(), attempts = 0,
		     date_modified = now()
		 WHERE id = $1`,
		id, model.JobScheduled)
	if err != nil {
		return fmt.Errorf("reset job for retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

// EnableNow enables a manual-only job and makes it due immediately.
func (r *JobRepository) EnableNow(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scheduled_jobs
		 SET enabled = TRUE, status = $2, clocked_at = now(), date_modified = now()
		 WHERE id = $1`,
		id, model.JobScheduled)
	if err != nil {
		return fmt.Errorf("enable job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

// ListStuckQueued returns jobs that were handed to the dispatch queue but
// never picked up within threshold. The restarter re-enqueues them; touching
// date_modified here keeps the same job from being reported every sweep.
func (r *JobRepository) ListStuckQueued(ctx context.Context, threshold time.Duration) ([]model.ScheduledJob, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE scheduled_jobs SET date_modified = now()
		 WHERE status = $1 AND date_modified < now() - $2::interval
		 RETURNING `+jobColumns,
		model.JobQueued, threshold.String())
	if err != nil {
		return nil, fmt.Errorf("list stuck queued jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// DeleteOrphans removes jobs whose ledger entry no longer exists.
func (r *JobRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM scheduled_jobs j
		 WHERE NOT EXISTS (SELECT 1 FROM trash_entries t WHERE t.job_id = j.id)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectJobs(rows pgx.Rows) ([]model.ScheduledJob, error) {
	jobs := make([]model.ScheduledJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (model.ScheduledJob, error) {
	var job model.ScheduledJob
	err := row.Scan(
		&job.ID, &job.Name, &job.TrashID, &job.ClockedAt, &job.Enabled, &job.Status,
		&job.Attempts, &job.MaxAttempts, &job.DateCreated, &job.DateModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ScheduledJob{}, model.ErrJobNotFound
	}
	if err != nil {
		return model.ScheduledJob{}, fmt.Errorf("scan scheduled job: %w", err)
	}
	return job, nil
}
