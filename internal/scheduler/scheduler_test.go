package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-trash-bin/internal/model"
)

type mockJobSource struct {
	mock.Mock
}

func (m *mockJobSource) ClaimDue(ctx context.Context, limit int) ([]model.ScheduledJob, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.ScheduledJob), args.Error(1)
}

func (m *mockJobSource) ListStuckQueued(ctx context.Context, threshold time.Duration) ([]model.ScheduledJob, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]model.ScheduledJob), args.Error(1)
}

func (m *mockJobSource) EnableNow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJobSource) DeleteOrphans(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockDispatch struct {
	mock.Mock
}

func (m *mockDispatch) Enqueue(ctx context.Context, jobIDs ...string) error {
	args := m.Called(ctx, jobIDs)
	return args.Error(0)
}

func (m *mockDispatch) Dequeue(ctx context.Context, block time.Duration) (string, error) {
	args := m.Called(ctx, block)
	return args.String(0), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) ListStuckInProgress(ctx context.Context, threshold time.Duration) ([]model.TrashEntry, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]model.TrashEntry), args.Error(1)
}

func (m *mockLedger) MarkRetry(ctx context.Context, id string, errText string) error {
	args := m.Called(ctx, id, errText)
	return args.Error(0)
}

// noopLock always grants the lock.
type noopLock struct{ held bool }

func (l *noopLock) WithLock(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	if l.held {
		return false, nil
	}
	return true, fn(ctx)
}

func TestDispatchOnce_EnqueuesClaimedJobs(t *testing.T) {
	jobs := new(mockJobSource)
	dispatch := new(mockDispatch)
	s := New(jobs, dispatch, &noopLock{}, time.Second, 200)

	jobs.On("ClaimDue", mock.Anything, 200).Return([]model.ScheduledJob{
		{ID: "j1"}, {ID: "j2"},
	}, nil)
	dispatch.On("Enqueue", mock.Anything, []string{"j1", "j2"}).Return(nil)

	require.NoError(t, s.dispatchOnce(context.Background()))
	dispatch.AssertExpectations(t)
}

func TestDispatchOnce_NothingDueEnqueuesNothing(t *testing.T) {
	jobs := new(mockJobSource)
	dispatch := new(mockDispatch)
	s := New(jobs, dispatch, &noopLock{}, time.Second, 200)

	jobs.On("ClaimDue", mock.Anything, 200).Return([]model.ScheduledJob{}, nil)

	require.NoError(t, s.dispatchOnce(context.Background()))
	dispatch.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDispatchOnce_SkipsWhenLockHeldElsewhere(t *testing.T) {
	jobs := new(mockJobSource)
	dispatch := new(mockDispatch)
	s := New(jobs, dispatch, &noopLock{held: true}, time.Second, 200)

	require.NoError(t, s.dispatchOnce(context.Background()))
	jobs.AssertNotCalled(t, "ClaimDue", mock.Anything, mock.Anything)
}

func TestRestarterSweep_ReenqueuesStuckQueuedJobs(t *testing.T) {
	jobs := new(mockJobSource)
	dispatch := new(mockDispatch)
	ledger := new(mockLedger)
	r := NewRestarter(jobs, ledger, dispatch, 30*time.Minute, time.Minute)

	jobs.On("ListStuckQueued", mock.Anything, 30*time.Minute).Return([]model.ScheduledJob{{ID: "j9"}}, nil)
	dispatch.On("Enqueue", mock.Anything, []string{"j9"}).Return(nil)
	ledger.On("ListStuckInProgress", mock.Anything, 30*time.Minute).Return([]model.TrashEntry{}, nil)

	r.sweep(context.Background())

	dispatch.AssertExpectations(t)
}

func TestRestarterSweep_RearmsStalledDeletions(t *testing.T) {
	jobs := new(mockJobSource)
	dispatch := new(mockDispatch)
	ledger := new(mockLedger)
	r := NewRestarter(jobs, ledger, dispatch, 30*time.Minute, time.Minute)

	jobs.On("ListStuckQueued", mock.Anything, 30*time.Minute).Return([]model.ScheduledJob{}, nil)
	ledger.On("ListStuckInProgress", mock.Anything, 30*time.Minute).Return([]model.TrashEntry{
		{ID: "t1", JobID: "j1", Kind: model.KindProject},
	}, nil)
	ledger.On("MarkRetry", mock.Anything, "t1", mock.Anything).Return(nil)
	jobs.On("EnableNow", mock.Anything, "j1").Return(nil)

	r.sweep(context.Background())

	ledger.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestWorkerPool_ProcessesDequeuedJobs(t *testing.T) {
	dispatch := new(mockDispatch)
	runner := new(mockRunner)
	pool := NewPool(dispatch, runner, 1)

	processed := make(chan string, 1)
	dispatch.On("Dequeue", mock.Anything, mock.Anything).Return("j1", nil).Once()
	dispatch.On("Dequeue", mock.Anything, mock.Anything).Return("", nil)
	runner.On("ProcessJob", mock.Anything, "j1").Run(func(args mock.Arguments) {
		processed <- args.String(1)
	}).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	select {
	case id := <-processed:
		assert.Equal(t, "j1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) ProcessJob(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}
