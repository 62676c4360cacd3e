package model

import "time"

// Actor is the identity that initiated an operation, captured explicitly at
// the call site rather than pulled from ambient request state.
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	IP       string `json:"ip,omitempty"`
}

// AuditAction enumerates the lifecycle transitions recorded by the trail.
type AuditAction string

const (
	ActionInTrash        AuditAction = "in_trash"
	ActionPutBack        AuditAction = "put_back"
	ActionRemove         AuditAction = "remove"
	ActionAccess         AuditAction = "access"
	ActionProjectHistory AuditAction = "project_history"
)

// AuditEntry is one append-only trail record, keyed by the
// (app_label, model_name, object_id) triplet of the subject it concerns.
type AuditEntry struct {
	ID          int64             `json:"id,omitempty"`
	AppLabel    string            `json:"app_label"`
	ModelName   string            `json:"model_name"`
	ObjectID    string            `json:"object_id"`
	Action      AuditAction       `json:"action"`
	Actor       Actor             `json:"actor"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	GroupingKey string            `json:"grouping_key,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// AuditQuery filters the trail listing.
type AuditQuery struct {
	Action    string
	ActorID   string
	AppLabel  string
	ModelName string
	ObjectID  string
	From      string
	To        string
	Page      int
	Limit     int
}

// Meta is the paging envelope shared by listing endpoints.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
