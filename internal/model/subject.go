package model

import "time"

// NoOwnerUsername is the catch-all bucket that absorbs per-user usage
// counters when their owner is finally deleted.
const NoOwnerUsername = "__no_owner__"

// User is the narrow account shape the trash engine needs: activation and
// placeholder flags, anonymizable profile fields, and usage counters that
// must be folded into the no-owner bucket before the row goes away.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	IsActive         bool      `json:"is_active"`
	IsPlaceholder    bool      `json:"is_placeholder"`
	StorageBytesUsed int64     `json:"storage_bytes_used"`
	SubmissionCount  int64     `json:"submission_count"`
	DateJoined       time.Time `json:"date_joined"`
}

// Asset is a project owned by a user. ParentID orders deletion: children
// must go before their parents.
type Asset struct {
	ID            string    `json:"id"`
	UID           string    `json:"uid"`
	Name          string    `json:"name"`
	OwnerID       string    `json:"owner_id"`
	ParentID      string    `json:"parent_id,omitempty"`
	FormUID       string    `json:"form_uid"`
	PendingDelete bool      `json:"pending_delete"`
	DateCreated   time.Time `json:"date_created"`
}

// XForm is the external form record a deployed asset points at. Its
// downloadable/pending_delete flags are what end users see flip when a
// project enters or leaves the trash.
type XForm struct {
	ID            string `json:"id"`
	FormUID       string `json:"form_uid"`
	OwnerUsername string `json:"owner_username"`
	Downloadable  bool   `json:"downloadable"`
	PendingDelete bool   `json:"pending_delete"`
}

// UserFormID is the document-store key prefix for a form's submission
// projections.
func (f XForm) UserFormID() string {
	return f.OwnerUsername + "_" + f.FormUID
}

// AttachmentStatus is the visible delete state of an attachment row.
type AttachmentStatus string

const (
	AttachmentNormal  AttachmentStatus = "normal"
	AttachmentDeleted AttachmentStatus = "deleted"
)

// Attachment is a single stored file linked to a submission. StorageKey must
// survive until the storage delete succeeded, which is why the handler flips
// DeleteStatus only afterwards.
type Attachment struct {
	ID           string           `json:"id"`
	SubmissionID string           `json:"submission_id"`
	StorageKey   string           `json:"storage_key"`
	DeleteStatus AttachmentStatus `json:"delete_status"`
}
