package model

import "time"

// JobStatus tracks a scheduled job between creation and pickup. A job that
// completed successfully is deleted together with its ledger entry, so there
// is no terminal "done" state.
type JobStatus string

const (
	JobScheduled JobStatus = "scheduled"
	JobQueued    JobStatus = "queued"
	JobFailed    JobStatus = "failed"
)

// ScheduledJob is the deferred one-shot job linked to exactly one ledger
// entry. Its sole argument is the entry id; Name embeds human-readable
// subject identifiers for operator visibility.
type ScheduledJob struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TrashID      string    `json:"trash_id"`
	ClockedAt    time.Time `json:"clocked_at"`
	Enabled      bool      `json:"enabled"`
	Status       JobStatus `json:"status"`
	Attempts     int       `json:"attempts"`
	MaxAttempts  int       `json:"max_attempts"`
	DateCreated  time.Time `json:"date_created"`
	DateModified time.Time `json:"date_modified"`
}
