package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go-trash-bin/internal/model"
)

// JobSource is the scheduled-job persistence the dispatch loop polls.
type JobSource interface {
	ClaimDue(ctx context.Context, limit int) ([]model.ScheduledJob, error)
	ListStuckQueued(ctx context.Context, threshold time.Duration) ([]model.ScheduledJob, error)
	EnableNow(ctx context.Context, id string) error
	DeleteOrphans(ctx context.Context) (int64, error)
}

// Dispatch hands job ids from the scheduler to the worker pool.
type Dispatch interface {
	Enqueue(ctx context.Context, jobIDs ...string) error
	Dequeue(ctx context.Context, block time.Duration) (string, error)
}

// Locker serializes the dispatch loop across processes.
type Locker interface {
	WithLock(ctx context.Context, fn func(ctx context.Context) error) (bool, error)
}

// Scheduler polls for due jobs and pushes them onto the dispatch queue.
// The poll runs under an advisory lock so multiple instances can run the
// binary while only one dispatches at a time.
type Scheduler struct {
	jobs      JobSource
	queue     Dispatch
	lock      Locker
	interval  time.Duration
	batchSize int
}

func New(jobs JobSource, queue Dispatch, lock Locker, interval time.Duration, batchSize int) *Scheduler {
	return &Scheduler{
		jobs:      jobs,
		queue:     queue,
		lock:      lock,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.dispatchOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("dispatch cycle failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) dispatchOnce(ctx context.Context) error {
	held, err := s.lock.WithLock(ctx, func(ctx context.Context) error {
		jobs, err := s.jobs.ClaimDue(ctx, s.batchSize)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]string, len(jobs))
		for i, job := range jobs {
			ids[i] = job.ID
		}
		if err := s.queue.Enqueue(ctx, ids...); err != nil {
			return err
		}

		slog.Info("dispatched due jobs", "count", len(jobs))
		return nil
	})
	if err != nil {
		return err
	}
	if !held {
		slog.Debug("dispatch lock held elsewhere, skipping cycle")
	}
	return nil
}
