package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-trash-bin/internal/event"
	"go-trash-bin/internal/model"
)

// DeletionHandler performs the kind-specific purge for one ledger entry.
// Purge must tolerate being invoked twice for the same entry: the runner's
// in_progress gate stops concurrent runs, but a crash-restart can replay an
// entry whose side effects partially happened.
type DeletionHandler interface {
	Kind() model.TrashKind
	Purge(ctx context.Context, entry model.TrashEntry) error
}

// Runner executes scheduled jobs: it resolves the job to its ledger entry,
// claims the entry, dispatches to the kind's handler and settles the outcome
// (complete, retry with backoff, or fail).
type Runner struct {
	trash    TrashStore
	jobs     JobStore
	handlers map[model.TrashKind]DeletionHandler
	bus      event.Bus
	backoff  func(attempt int) time.Duration
	now      func() time.Time
}

func NewRunner(trash TrashStore, jobs JobStore, bus event.Bus, backoff func(attempt int) time.Duration, handlers ...DeletionHandler) *Runner {
	byKind := make(map[model.TrashKind]DeletionHandler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}
	return &Runner{
		trash:    trash,
		jobs:     jobs,
		handlers: byKind,
		bus:      bus,
		backoff:  backoff,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessJob is the worker entry point. It never returns an error for
// situations that resolve themselves (job or entry already gone, entry
// already claimed): those are idempotent no-ops by design.
func (r *Runner) ProcessJob(ctx context.Context, jobID string) error {
	job, err := r.jobs.FindByID(ctx, jobID)
	if errors.Is(err, model.ErrJobNotFound) {
		slog.Debug("job vanished before pickup", "job_id", jobID)
		return nil
	}
	if err != nil {
		return err
	}

	entry, ok, err := r.trash.AcquireForExecution(ctx, job.TrashID)
	if err != nil {
		return err
	}
	if !ok {
		slog.Debug("trash entry already claimed or gone", "trash_id", job.TrashID)
		return nil
	}

	handler, found := r.handlers[entry.Kind]
	if !found {
		return r.fail(ctx, job, entry, model.ErrInvalidKind)
	}

	slog.Info("deletion handler starting",
		"trash_id", entry.ID, "kind", entry.Kind, "subject", entry.SubjectName,
		"attempt", job.Attempts+1)

	if err := handler.Purge(ctx, entry); err != nil {
		if isTransient(err) && job.Attempts+1 < job.MaxAttempts {
			return r.retry(ctx, job, entry, err)
		}
		return r.fail(ctx, job, entry, err)
	}

	return r.complete(ctx, entry)
}

func (r *Runner) complete(ctx context.Context, entry model.TrashEntry) error {
	audit := trashAudit(entry.Kind, entry.SubjectID, model.ActionRemove, entry.RequestedBy, map[string]string{
		"subject_name": entry.SubjectName,
	})
	if err := r.trash.Complete(ctx, entry.ID, audit); err != nil {
		return err
	}

	slog.Info("deletion completed", "trash_id", entry.ID, "kind", entry.Kind, "subject", entry.SubjectName)
	r.bus.Publish(event.New(event.TypeDeletionCompleted, entry, entry.RequestedBy.UserID))
	return nil
}

func (r *Runner) retry(ctx context.Context, job model.ScheduledJob, entry model.TrashEntry, cause error) error {
	delay := r.backoff(job.Attempts + 1)
	if _, err := r.jobs.Reschedule(ctx, job.ID, r.now().Add(delay)); err != nil {
		return err
	}
	if err := r.trash.MarkRetry(ctx, entry.ID, cause.Error()); err != nil {
		return err
	}

	slog.Warn("deletion failed, retrying",
		"trash_id", entry.ID, "kind", entry.Kind, "delay", delay,
		"attempt", job.Attempts+1, "error", cause)
	r.bus.Publish(event.New(event.TypeDeletionRetried, entry, entry.RequestedBy.UserID))
	return nil
}

// fail parks the entry as failed and keeps the (disabled) job around so
// operators can inspect the stored error and re-arm it manually.
func (r *Runner) fail(ctx context.Context, job model.ScheduledJob, entry model.TrashEntry, cause error) error {
	if err := r.jobs.MarkFailed(ctx, job.ID); err != nil {
		return err
	}
	if err := r.trash.MarkFailed(ctx, entry.ID, cause.Error()); err != nil {
		return err
	}

	slog.Error("deletion failed permanently",
		"trash_id", entry.ID, "kind", entry.Kind, "subject", entry.SubjectName, "error", cause)
	r.bus.Publish(event.New(event.TypeDeletionFailed, entry, entry.RequestedBy.UserID))
	return nil
}
