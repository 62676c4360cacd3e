package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// insertAuditEntry writes one trail row through the given querier, so the
// ledger transactions can include their audit writes. A duplicate grouping
// key is silently dropped: that is the dedup contract for noisy access
// events.
func insertAuditEntry(ctx context.Context, q Querier, entry model.AuditEntry) error {
	metadata := []byte(`{}`)
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	var groupingKey *string
	if entry.GroupingKey != "" {
		groupingKey = &entry.GroupingKey
	}

	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err := q.Exec(ctx,
		`INSERT INTO audit_entries
		 (app_label, model_name, object_id, action,
		  actor_id, actor_name, actor_role, actor_ip,
		  metadata, grouping_key, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (grouping_key) WHERE grouping_key IS NOT NULL DO NOTHING`,
		entry.AppLabel, entry.ModelName, entry.ObjectID, entry.Action,
		entry.Actor.UserID, entry.Actor.Username, entry.Actor.Role, entry.Actor.IP,
		metadata, groupingKey, occurredAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	return insertAuditEntry(ctx, r.pool, entry)
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if action := strings.TrimSpace(query.Action); action != "" {
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", argIdx))
		args = append(args, action)
		argIdx++
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, actorID)
		argIdx++
	}
	if appLabel := strings.TrimSpace(query.AppLabel); appLabel != "" {
		where = append(where, fmt.Sprintf("app_label = $%d", argIdx))
		args = append(args, appLabel)
		argIdx++
	}
	if modelName := strings.TrimSpace(query.ModelName); modelName != "" {
		where = append(where, fmt.Sprintf("model_name = $%d", argIdx))
		args = append(args, modelName)
		argIdx++
	}
	if objectID := strings.TrimSpace(query.ObjectID); objectID != "" {
		where = append(where, fmt.Sprintf("object_id = $%d", argIdx))
		args = append(args, objectID)
		argIdx++
	}
	if from := strings.TrimSpace(query.From); from != "" {
		where = append(where, fmt.Sprintf("occurred_at >= $%d::timestamptz", argIdx))
		args = append(args, from)
		argIdx++
	}
	if to := strings.TrimSpace(query.To); to != "" {
		where = append(where, fmt.Sprintf("occurred_at <= $%d::timestamptz", argIdx))
		args = append(args, to)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_entries %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}
	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT id, app_label, model_name, object_id, action,
		        actor_id, actor_name, actor_role, actor_ip,
		        metadata, COALESCE(grouping_key, ''), occurred_at
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var metadata []byte

		if err := rows.Scan(
			&e.ID, &e.AppLabel, &e.ModelName, &e.ObjectID, &e.Action,
			&e.Actor.UserID, &e.Actor.Username, &e.Actor.Role, &e.Actor.IP,
			&metadata, &e.GroupingKey, &e.OccurredAt,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}

		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &e.Metadata)
		}

		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}
