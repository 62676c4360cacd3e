package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-trash-bin/internal/event"
	"go-trash-bin/internal/model"
)

// TrashService is the programmatic entry point for moving subjects to trash,
// putting them back, and flipping their visible status flags.
type TrashService struct {
	trash  TrashStore
	jobs   JobStore
	users  UserStore
	assets AssetStore
	xforms XFormStore
	bus    event.Bus

	defaultGraceDays int
	maxAttempts      int
	now              func() time.Time
}

func NewTrashService(trash TrashStore, jobs JobStore, users UserStore, assets AssetStore, xforms XFormStore, bus event.Bus, defaultGraceDays int, maxAttempts int) *TrashService {
	return &TrashService{
		trash:            trash,
		jobs:             jobs,
		users:            users,
		assets:           assets,
		xforms:           xforms,
		bus:              bus,
		defaultGraceDays: defaultGraceDays,
		maxAttempts:      maxAttempts,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// DefaultGracePeriodDays is the configured grace period applied when a
// request does not choose one.
func (s *TrashService) DefaultGracePeriodDays() int {
	return s.defaultGraceDays
}

// auditTriplet maps a trash kind to the (app_label, model_name) pair audit
// rows are keyed by.
func auditTriplet(kind model.TrashKind) (string, string) {
	switch kind {
	case model.KindAccount:
		return "auth", "user"
	case model.KindProject:
		return "kpi", "asset"
	default:
		return "logger", "attachment"
	}
}

func trashAudit(kind model.TrashKind, subjectID string, action model.AuditAction, actor model.Actor, metadata map[string]string) model.AuditEntry {
	appLabel, modelName := auditTriplet(kind)
	return model.AuditEntry{
		AppLabel:  appLabel,
		ModelName: modelName,
		ObjectID:  subjectID,
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
	}
}

// MoveToTrash creates one ledger entry plus scheduled job per subject and
// flips the subject's visible flags. A subject that already has an active
// entry fails the whole call with ErrEntryExists; callers are expected to
// pre-filter. Entries created before the conflict are returned alongside
// the error.
func (s *TrashService) MoveToTrash(ctx context.Context, actor model.Actor, subjects []model.TrashSubject, opts model.TrashOptions) ([]model.TrashEntry, error) {
	if len(subjects) == 0 {
		return nil, model.ErrNoSubjects
	}
	if !opts.Kind.Valid() {
		return nil, model.ErrInvalidKind
	}
	if opts.GracePeriodDays < model.GracePeriodManual {
		return nil, model.ErrInvalidGracePeriod
	}

	created := make([]model.TrashEntry, 0, len(subjects))
	for _, subject := range subjects {
		entry, job := s.buildEntry(actor, subject, opts)

		audit := trashAudit(opts.Kind, subject.ID, model.ActionInTrash, actor, map[string]string{
			"subject_name":      subject.Name,
			"grace_period_days": fmt.Sprintf("%d", opts.GracePeriodDays),
		})

		if err := s.trash.CreateWithJob(ctx, entry, job, audit); err != nil {
			return created, err
		}

		if err := s.markTrashed(ctx, opts.Kind, subject.ID); err != nil {
			return created, err
		}

		created = append(created, entry)
		s.bus.Publish(event.New(event.TypeTrashCreated, entry, actor.UserID))
	}

	return created, nil
}

func (s *TrashService) buildEntry(actor model.Actor, subject model.TrashSubject, opts model.TrashOptions) (model.TrashEntry, model.ScheduledJob) {
	now := s.now()
	days := opts.GracePeriodDays
	manual := days == model.GracePeriodManual

	metadata := make(map[string]string, len(subject.Metadata)+1)
	for k, v := range subject.Metadata {
		metadata[k] = v
	}
	metadata["subject_name"] = subject.Name

	entry := model.TrashEntry{
		ID:                uuid.NewString(),
		Kind:              opts.Kind,
		SubjectID:         subject.ID,
		SubjectName:       subject.Name,
		Status:            model.StatusPending,
		RequestedBy:       actor,
		GracePeriodDays:   days,
		EmptyManually:     manual,
		RetainPlaceholder: opts.Kind == model.KindAccount && opts.RetainPlaceholder,
		Metadata:          metadata,
		JobID:             uuid.NewString(),
		DateCreated:       now,
		DateModified:      now,
	}

	clockedAt := now
	if !manual {
		clockedAt = now.Add(time.Duration(days) * 24 * time.Hour)
	}

	job := model.ScheduledJob{
		ID:          entry.JobID,
		Name:        fmt.Sprintf("remove %s %q (%s)", opts.Kind, subject.Name, subject.ID),
		TrashID:     entry.ID,
		ClockedAt:   clockedAt,
		Enabled:     !manual,
		Status:      model.JobScheduled,
		MaxAttempts: s.maxAttempts,
	}

	return entry, job
}

// markTrashed flips the flags end users see while a subject sits in trash.
func (s *TrashService) markTrashed(ctx context.Context, kind model.TrashKind, subjectID string) error {
	switch kind {
	case model.KindAccount:
		return s.users.SetActive(ctx, []string{subjectID}, false)
	case model.KindProject:
		return s.ToggleStatuses(ctx, []string{subjectID}, kind, false, true)
	default:
		return nil
	}
}

// PutBack restores subjects whose deletion has not started yet. Each
// put-back deletes the ledger entry and its scheduled job atomically,
// reverses the trashed flags and writes a put_back audit row. Subjects whose
// handler already started fail with ErrTaskInProgress.
func (s *TrashService) PutBack(ctx context.Context, actor model.Actor, subjects []model.TrashSubject, kind model.TrashKind) error {
	if len(subjects) == 0 {
		return model.ErrNoSubjects
	}
	if !kind.Valid() {
		return model.ErrInvalidKind
	}

	for _, subject := range subjects {
		audit := trashAudit(kind, subject.ID, model.ActionPutBack, actor, map[string]string{
			"subject_name": subject.Name,
		})

		entry, err := s.trash.Cancel(ctx, kind, subject.ID, audit)
		if err != nil {
			return err
		}

		switch kind {
		case model.KindAccount:
			if err := s.users.SetActive(ctx, []string{subject.ID}, true); err != nil {
				return err
			}
		case model.KindProject:
			if err := s.ToggleStatuses(ctx, []string{subject.ID}, kind, true, true); err != nil {
				return err
			}
		}

		s.bus.Publish(event.New(event.TypeTrashRestored, entry, actor.UserID))
	}

	return nil
}

// ToggleStatuses flips the visible deactivated/pending-delete flags
// independent of the ledger. For projects, toggleDelete also moves the
// pending_delete pair on the asset and its external form record.
func (s *TrashService) ToggleStatuses(ctx context.Context, subjectIDs []string, kind model.TrashKind, active bool, toggleDelete bool) error {
	switch kind {
	case model.KindAccount:
		return s.users.SetActive(ctx, subjectIDs, active)
	case model.KindProject:
		formUIDs := make([]string, 0, len(subjectIDs))
		for _, id := range subjectIDs {
			asset, err := s.assets.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if asset.FormUID != "" {
				formUIDs = append(formUIDs, asset.FormUID)
			}
		}

		if toggleDelete {
			if err := s.assets.SetPendingDelete(ctx, subjectIDs, !active); err != nil {
				return err
			}
			return s.xforms.ToggleFlags(ctx, formUIDs, active, !active)
		}
		return s.xforms.ToggleFlags(ctx, formUIDs, active, false)
	default:
		return model.ErrInvalidKind
	}
}

// List returns ledger entries for the operator listing, optionally filtered
// by status. Failed entries carry their stored failure_error metadata.
func (s *TrashService) List(ctx context.Context, status model.TrashStatus) ([]model.TrashEntry, error) {
	return s.trash.List(ctx, status)
}

func (s *TrashService) Find(ctx context.Context, id string) (model.TrashEntry, error) {
	return s.trash.FindByID(ctx, id)
}

// RetryFailed re-arms the scheduled job of a failed entry for an immediate
// re-run with a fresh attempt budget.
func (s *TrashService) RetryFailed(ctx context.Context, id string) error {
	entry, err := s.trash.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.Status != model.StatusFailed {
		return fmt.Errorf("entry %s is %s, only failed entries can be retried", id, entry.Status)
	}
	return s.jobs.ResetForRetry(ctx, entry.JobID)
}

// EmptyTrash force-enables the jobs of manual-only pending entries so the
// next scheduler tick picks them up. Returns the number of entries armed.
func (s *TrashService) EmptyTrash(ctx context.Context) (int, error) {
	entries, err := s.trash.List(ctx, model.StatusPending)
	if err != nil {
		return 0, err
	}

	armed := 0
	for _, entry := range entries {
		if !entry.EmptyManually {
			continue
		}
		if err := s.jobs.EnableNow(ctx, entry.JobID); err != nil {
			return armed, err
		}
		armed++
	}
	return armed, nil
}
