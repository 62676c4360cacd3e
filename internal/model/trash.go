package model

import "time"

// TrashKind selects which deletion handler applies to a ledger entry.
type TrashKind string

const (
	KindAccount    TrashKind = "account"
	KindProject    TrashKind = "project"
	KindAttachment TrashKind = "attachment"
)

func (k TrashKind) Valid() bool {
	switch k {
	case KindAccount, KindProject, KindAttachment:
		return true
	}
	return false
}

// TrashStatus is the ledger entry lifecycle state. Transitions are
// pending -> in_progress -> {removed | failed | retry -> in_progress};
// nothing skips in_progress.
type TrashStatus string

const (
	StatusPending    TrashStatus = "pending"
	StatusInProgress TrashStatus = "in_progress"
	StatusRetry      TrashStatus = "retry"
	StatusFailed     TrashStatus = "failed"
)

// Grace period sentinels. Any value >= 0 is a number of days.
const (
	GracePeriodManual    = -1
	GracePeriodImmediate = 0
)

// MetadataFailureError is the metadata key holding the last handler error text.
const MetadataFailureError = "failure_error"

// TrashEntry is one pending or in-flight deletion request. Metadata is
// denormalized at creation time so the entry stays informative after the
// subject itself is gone.
type TrashEntry struct {
	ID                string            `json:"id"`
	Kind              TrashKind         `json:"kind"`
	SubjectID         string            `json:"subject_id"`
	SubjectName       string            `json:"subject_name"`
	Status            TrashStatus       `json:"status"`
	RequestedBy       Actor             `json:"requested_by"`
	GracePeriodDays   int               `json:"grace_period_days"`
	EmptyManually     bool              `json:"empty_manually"`
	RetainPlaceholder bool              `json:"retain_placeholder"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	JobID             string            `json:"job_id"`
	DateCreated       time.Time         `json:"date_created"`
	DateModified      time.Time         `json:"date_modified"`
}

// FailureError returns the persisted handler error text, if any.
func (e TrashEntry) FailureError() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetadataFailureError]
}

// TrashSubject identifies one object to move to trash or put back, with the
// display metadata to denormalize onto the ledger entry.
type TrashSubject struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TrashOptions captures the caller's choices for a move-to-trash request.
type TrashOptions struct {
	Kind              TrashKind
	GracePeriodDays   int
	RetainPlaceholder bool
}
