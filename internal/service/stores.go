package service

import (
	"context"
	"time"

	"go-trash-bin/internal/model"
)

// TrashStore is the ledger persistence the engine runs against. The
// multi-row operations (CreateWithJob, Complete, Cancel) are transactional:
// the ledger entry, its scheduled job and the audit row move together.
type TrashStore interface {
	CreateWithJob(ctx context.Context, entry model.TrashEntry, job model.ScheduledJob, audit model.AuditEntry) error
	FindByID(ctx context.Context, id string) (model.TrashEntry, error)
	FindBySubject(ctx context.Context, kind model.TrashKind, subjectID string) (model.TrashEntry, error)
	List(ctx context.Context, status model.TrashStatus) ([]model.TrashEntry, error)
	AcquireForExecution(ctx context.Context, id string) (model.TrashEntry, bool, error)
	MarkRetry(ctx context.Context, id string, errText string) error
	MarkFailed(ctx context.Context, id string, errText string) error
	Complete(ctx context.Context, id string, audit model.AuditEntry) error
	Cancel(ctx context.Context, kind model.TrashKind, subjectID string, audit model.AuditEntry) (model.TrashEntry, error)
	ListStuckInProgress(ctx context.Context, threshold time.Duration) ([]model.TrashEntry, error)
}

// JobStore covers the scheduled-job mutations the engine needs outside the
// ledger transactions.
type JobStore interface {
	FindByID(ctx context.Context, id string) (model.ScheduledJob, error)
	Reschedule(ctx context.Context, id string, clockedAt time.Time) (model.ScheduledJob, error)
	MarkFailed(ctx context.Context, id string) error
	ResetForRetry(ctx context.Context, id string) error
	EnableNow(ctx context.Context, id string) error
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	SetActive(ctx context.Context, ids []string, active bool) error
	Anonymize(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type AssetStore interface {
	FindByID(ctx context.Context, id string) (model.Asset, error)
	ListByOwnerChildrenFirst(ctx context.Context, ownerID string) ([]model.Asset, error)
	SetPendingDelete(ctx context.Context, ids []string, pending bool) error
	Delete(ctx context.Context, id string) error
}

type XFormStore interface {
	FindByFormUID(ctx context.Context, formUID string) (model.XForm, error)
	ToggleFlags(ctx context.Context, formUIDs []string, downloadable bool, pendingDelete bool) error
	Delete(ctx context.Context, formUID string) error
}

type AttachmentStore interface {
	FindByID(ctx context.Context, id string) (model.Attachment, error)
	MarkDeleted(ctx context.Context, id string) error
}

type SubmissionStore interface {
	Count(ctx context.Context, formUID string) (int64, error)
	DeleteBatch(ctx context.Context, formUID string, limit int) (int64, error)
}

// DocStore is the document store holding denormalized submission
// projections, kept eventually consistent with the relational side.
type DocStore interface {
	DeleteByUserFormID(ctx context.Context, userFormID string) (int64, error)
	DeleteByFormUID(ctx context.Context, formUID string) (int64, error)
	CountByUserFormID(ctx context.Context, userFormID string) (int64, error)
}

// DeletionProxy is the external service owning cross-store account data.
type DeletionProxy interface {
	DeleteUser(ctx context.Context, username string) error
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}
