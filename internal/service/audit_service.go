package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-trash-bin/internal/model"
)

// AuditService records trail events that happen outside the ledger
// transactions: access events and project-history field diffs. Writes here
// are best-effort; a failed audit insert must never fail the operation that
// produced it.
type AuditService struct {
	audits AuditStore
	now    func() time.Time
}

func NewAuditService(audits AuditStore) *AuditService {
	return &AuditService{audits: audits, now: time.Now}
}

// LogAccess records that an actor touched an object. Repeated touches within
// the same hour collapse into one row through the grouping key.
func (s *AuditService) LogAccess(ctx context.Context, appLabel, modelName, objectID string, actor model.Actor) {
	occurred := s.now().UTC()
	entry := model.AuditEntry{
		AppLabel:  appLabel,
		ModelName: modelName,
		ObjectID:  objectID,
		Action:    model.ActionAccess,
		Actor:     actor,
		GroupingKey: fmt.Sprintf("%s|%s|%s|%s|%s",
			model.ActionAccess, actor.UserID, modelName, objectID,
			occurred.Format("2006010215")),
		OccurredAt: occurred,
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		slog.Error("failed to record access event",
			"object_id", objectID, "actor", actor.Username, "error", err)
	}
}

// LogProjectHistory records which fields of a project changed. Fields whose
// value did not actually change are dropped; if nothing changed no row is
// written.
func (s *AuditService) LogProjectHistory(ctx context.Context, objectID string, actor model.Actor, before, after map[string]string) {
	metadata := make(map[string]string)
	for field, newVal := range after {
		oldVal, ok := before[field]
		if ok && oldVal == newVal {
			continue
		}
		metadata[field+"_old"] = oldVal
		metadata[field+"_new"] = newVal
	}
	if len(metadata) == 0 {
		return
	}

	entry := model.AuditEntry{
		AppLabel:   "kpi",
		ModelName:  "asset",
		ObjectID:   objectID,
		Action:     model.ActionProjectHistory,
		Actor:      actor,
		Metadata:   metadata,
		OccurredAt: s.now().UTC(),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		slog.Error("failed to record project history",
			"object_id", objectID, "actor", actor.Username, "error", err)
	}
}

// Query lists trail records for the admin API.
func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.audits.Query(ctx, query)
}
