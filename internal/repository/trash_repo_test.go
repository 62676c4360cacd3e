//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-trash-bin/internal/model"
)

func TestTrashRepository_DuplicateSubjectIsRejected(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	due := time.Now().Add(time.Hour)
	entry, job, audit := ledgerFixture(model.KindProject, "aX1", due)
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	dup, dupJob, dupAudit := ledgerFixture(model.KindProject, "aX1", due)
	err := repo.CreateWithJob(ctx, dup, dupJob, dupAudit)
	require.ErrorIs(t, err, model.ErrEntryExists)

	// The losing transaction must leave neither a job nor an audit row.
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM trash_entries`))
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM scheduled_jobs`))
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM audit_entries`))

	// The same subject id under another kind is a different ledger slot.
	other, otherJob, otherAudit := ledgerFixture(model.KindAttachment, "aX1", due)
	require.NoError(t, repo.CreateWithJob(ctx, other, otherJob, otherAudit))
}

func TestTrashRepository_AcquireForExecutionClaimsOnce(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	entry, job, audit := ledgerFixture(model.KindProject, "aX1", time.Now())
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	claimed, ok, err := repo.AcquireForExecution(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusInProgress, claimed.Status)

	// A duplicate delivery of the same job must not claim again.
	_, ok, err = repo.AcquireForExecution(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// An entry that no longer exists is a silent no-op, not an error.
	_, ok, err = repo.AcquireForExecution(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrashRepository_ConcurrentAcquireHasOneWinner(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	entry, job, audit := ledgerFixture(model.KindAccount, "alice", time.Now())
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	const racers = 4
	results := make([]bool, racers)
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := repo.AcquireForExecution(ctx, entry.ID)
			results[i] = ok
			errs[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestTrashRepository_CancelRejectedOnceClaimed(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	entry, job, audit := ledgerFixture(model.KindProject, "aX1", time.Now())
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	_, ok, err := repo.AcquireForExecution(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, ok)

	putBack := audit
	putBack.Action = model.ActionPutBack
	_, err = repo.Cancel(ctx, model.KindProject, "aX1", putBack)
	require.ErrorIs(t, err, model.ErrTaskInProgress)

	// The rejected cancel must leave the ledger untouched.
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM trash_entries`))
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM scheduled_jobs`))
}

func TestTrashRepository_CancelRemovesEntryJobAndAudits(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	entry, job, audit := ledgerFixture(model.KindProject, "aX1", time.Now().Add(time.Hour))
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	putBack := audit
	putBack.Action = model.ActionPutBack
	cancelled, err := repo.Cancel(ctx, model.KindProject, "aX1", putBack)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, cancelled.ID)

	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM trash_entries`))
	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM scheduled_jobs`))
	assert.Equal(t, 1, countRows(t, pool,
		`SELECT count(*) FROM audit_entries WHERE action = $1`, model.ActionPutBack))
}

func TestTrashRepository_CompleteIsAtomicAndIdempotent(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	entry, job, audit := ledgerFixture(model.KindAttachment, "att-1", time.Now())
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	remove := audit
	remove.Action = model.ActionRemove
	require.NoError(t, repo.Complete(ctx, entry.ID, remove))

	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM trash_entries`))
	assert.Equal(t, 0, countRows(t, pool, `SELECT count(*) FROM scheduled_jobs`))
	assert.Equal(t, 1, countRows(t, pool,
		`SELECT count(*) FROM audit_entries WHERE action = $1`, model.ActionRemove))

	// A re-run after the entry is gone writes nothing.
	require.NoError(t, repo.Complete(ctx, entry.ID, remove))
	assert.Equal(t, 1, countRows(t, pool,
		`SELECT count(*) FROM audit_entries WHERE action = $1`, model.ActionRemove))
}

func TestTrashRepository_MarkRetryStoresErrorText(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTrashRepository(pool)
	ctx := context.Background()

	entry, job, audit := ledgerFixture(model.KindProject, "aX1", time.Now())
	require.NoError(t, repo.CreateWithJob(ctx, entry, job, audit))

	require.NoError(t, repo.MarkRetry(ctx, entry.ID, "connection reset"))

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetry, found.Status)
	assert.Equal(t, "connection reset", found.Metadata["failure_error"])

	require.ErrorIs(t, repo.MarkFailed(ctx, uuid.NewString(), "gone"), model.ErrEntryNotFound)
}
