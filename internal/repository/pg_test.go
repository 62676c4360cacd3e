//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"go-trash-bin/internal/database"
	"go-trash-bin/internal/model"
)

// newTestPool connects to the database named by TEST_DATABASE_URL, ensures
// the schema and truncates the ledger tables so every test starts clean.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))

	_, err = db.Pool.Exec(ctx, `TRUNCATE trash_entries, scheduled_jobs, audit_entries`)
	require.NoError(t, err)

	return db.Pool
}

// ledgerFixture builds a matching entry/job/audit triple the way the trash
// service does before handing them to CreateWithJob.
func ledgerFixture(kind model.TrashKind, subjectID string, clockedAt time.Time) (model.TrashEntry, model.ScheduledJob, model.AuditEntry) {
	entry := model.TrashEntry{
		ID:              uuid.NewString(),
		Kind:            kind,
		SubjectID:       subjectID,
		SubjectName:     subjectID,
		Status:          model.StatusPending,
		RequestedBy:     model.Actor{UserID: "admin-1", Username: "admin"},
		GracePeriodDays: 7,
		Metadata:        map[string]string{"subject_name": subjectID},
		JobID:           uuid.NewString(),
	}

	job := model.ScheduledJob{
		ID:          entry.JobID,
		Name:        "remove " + string(kind) + " " + subjectID,
		TrashID:     entry.ID,
		ClockedAt:   clockedAt,
		Enabled:     true,
		Status:      model.JobScheduled,
		MaxAttempts: 5,
	}

	audit := model.AuditEntry{
		AppLabel:  "kpi",
		ModelName: string(kind),
		ObjectID:  subjectID,
		Action:    model.ActionInTrash,
		Actor:     entry.RequestedBy,
	}

	return entry, job, audit
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
