package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go-trash-bin/internal/model"
)

// Ledger is the slice of the trash ledger the restarter needs.
type Ledger interface {
	ListStuckInProgress(ctx context.Context, threshold time.Duration) ([]model.TrashEntry, error)
	MarkRetry(ctx context.Context, id string, errText string) error
}

// Restarter recovers work lost between the dispatch queue and the workers:
// jobs handed to the queue but never dequeued are re-enqueued, and entries
// claimed by a worker that died mid-purge are re-armed for another run.
type Restarter struct {
	jobs      JobSource
	trash     Ledger
	queue     Dispatch
	threshold time.Duration
	interval  time.Duration
}

func NewRestarter(jobs JobSource, trash Ledger, queue Dispatch, threshold, interval time.Duration) *Restarter {
	return &Restarter{
		jobs:      jobs,
		trash:     trash,
		queue:     queue,
		threshold: threshold,
		interval:  interval,
	}
}

func (r *Restarter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Restarter) sweep(ctx context.Context) {
	stuck, err := r.jobs.ListStuckQueued(ctx, r.threshold)
	if err != nil {
		slog.Error("failed to list stuck queued jobs", "error", err)
	} else if len(stuck) > 0 {
		ids := make([]string, len(stuck))
		for i, job := range stuck {
			ids[i] = job.ID
		}
		if err := r.queue.Enqueue(ctx, ids...); err != nil {
			slog.Error("failed to re-enqueue stuck jobs", "error", err)
		} else {
			slog.Warn("re-enqueued stuck jobs", "count", len(stuck))
		}
	}

	entries, err := r.trash.ListStuckInProgress(ctx, r.threshold)
	if err != nil {
		slog.Error("failed to list stalled deletions", "error", err)
		return
	}
	for _, entry := range entries {
		if err := r.trash.MarkRetry(ctx, entry.ID, "execution stalled, restarted"); err != nil {
			slog.Error("failed to re-arm stalled deletion", "trash_id", entry.ID, "error", err)
			continue
		}
		if err := r.jobs.EnableNow(ctx, entry.JobID); err != nil {
			slog.Error("failed to re-enable job for stalled deletion",
				"trash_id", entry.ID, "job_id", entry.JobID, "error", err)
			continue
		}
		slog.Warn("restarted stalled deletion", "trash_id", entry.ID, "kind", entry.Kind)
	}
}
