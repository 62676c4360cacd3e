package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"go-trash-bin/internal/event"
	"go-trash-bin/internal/model"
)

type mockTrashStore struct {
	mock.Mock
}

func (m *mockTrashStore) CreateWithJob(ctx context.Context, entry model.TrashEntry, job model.ScheduledJob, audit model.AuditEntry) error {
	args := m.Called(ctx, entry, job, audit)
	return args.Error(0)
}

func (m *mockTrashStore) FindByID(ctx context.Context, id string) (model.TrashEntry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.TrashEntry), args.Error(1)
}

func (m *mockTrashStore) FindBySubject(ctx context.Context, kind model.TrashKind, subjectID string) (model.TrashEntry, error) {
	args := m.Called(ctx, kind, subjectID)
	return args.Get(0).(model.TrashEntry), args.Error(1)
}

func (m *mockTrashStore) List(ctx context.Context, status model.TrashStatus) ([]model.TrashEntry, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]model.TrashEntry), args.Error(1)
}

func (m *mockTrashStore) AcquireForExecution(ctx context.Context, id string) (model.TrashEntry, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.TrashEntry), args.Bool(1), args.Error(2)
}

func (m *mockTrashStore) MarkRetry(ctx context.Context, id string, errText string) error {
	args := m.Called(ctx, id, errText)
	return args.Error(0)
}

func (m *mockTrashStore) MarkFailed(ctx context.Context, id string, errText string) error {
	args := m.Called(ctx, id, errText)
	return args.Error(0)
}

func (m *mockTrashStore) Complete(ctx context.Context, id string, audit model.AuditEntry) error {
	args := m.Called(ctx, id, audit)
	return args.Error(0)
}

func (m *mockTrashStore) Cancel(ctx context.Context, kind model.TrashKind, subjectID string, audit model.AuditEntry) (model.TrashEntry, error) {
	args := m.Called(ctx, kind, subjectID, audit)
	return args.Get(0).(model.TrashEntry), args.Error(1)
}

func (m *mockTrashStore) ListStuckInProgress(ctx context.Context, threshold time.Duration) ([]model.TrashEntry, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]model.TrashEntry), args.Error(1)
}

type mockJobStore struct {
	mock.Mock
}

func (m *mockJobStore) FindByID(ctx context.Context, id string) (model.ScheduledJob, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ScheduledJob), args.Error(1)
}

func (m *mockJobStore) Reschedule(ctx context.Context, id string, clockedAt time.Time) (model.ScheduledJob, error) {
	args := m.Called(ctx, id, clockedAt)
	return args.Get(0).(model.ScheduledJob), args.Error(1)
}

func (m *mockJobStore) MarkFailed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJobStore) ResetForRetry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJobStore) EnableNow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) SetActive(ctx context.Context, ids []string, active bool) error {
	args := m.Called(ctx, ids, active)
	return args.Error(0)
}

func (m *mockUserStore) Anonymize(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAssetStore struct {
	mock.Mock
}

func (m *mockAssetStore) FindByID(ctx context.Context, id string) (model.Asset, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Asset), args.Error(1)
}

func (m *mockAssetStore) ListByOwnerChildrenFirst(ctx context.Context, ownerID string) ([]model.Asset, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Asset), args.Error(1)
}

func (m *mockAssetStore) SetPendingDelete(ctx context.Context, ids []string, pending bool) error {
	args := m.Called(ctx, ids, pending)
	return args.Error(0)
}

func (m *mockAssetStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockXFormStore struct {
	mock.Mock
}

func (m *mockXFormStore) FindByFormUID(ctx context.Context, formUID string) (model.XForm, error) {
	args := m.Called(ctx, formUID)
	return args.Get(0).(model.XForm), args.Error(1)
}

func (m *mockXFormStore) ToggleFlags(ctx context.Context, formUIDs []string, downloadable bool, pendingDelete bool) error {
	args := m.Called(ctx, formUIDs, downloadable, pendingDelete)
	return args.Error(0)
}

func (m *mockXFormStore) Delete(ctx context.Context, formUID string) error {
	args := m.Called(ctx, formUID)
	return args.Error(0)
}

type mockAttachmentStore struct {
	mock.Mock
}

func (m *mockAttachmentStore) FindByID(ctx context.Context, id string) (model.Attachment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Attachment), args.Error(1)
}

func (m *mockAttachmentStore) MarkDeleted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSubmissionStore struct {
	mock.Mock
}

func (m *mockSubmissionStore) Count(ctx context.Context, formUID string) (int64, error) {
	args := m.Called(ctx, formUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubmissionStore) DeleteBatch(ctx context.Context, formUID string, limit int) (int64, error) {
	args := m.Called(ctx, formUID, limit)
	return args.Get(0).(int64), args.Error(1)
}

type mockDocStore struct {
	mock.Mock
}

func (m *mockDocStore) DeleteByUserFormID(ctx context.Context, userFormID string) (int64, error) {
	args := m.Called(ctx, userFormID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDocStore) DeleteByFormUID(ctx context.Context, formUID string) (int64, error) {
	args := m.Called(ctx, formUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDocStore) CountByUserFormID(ctx context.Context, userFormID string) (int64, error) {
	args := m.Called(ctx, userFormID)
	return args.Get(0).(int64), args.Error(1)
}

type mockDeletionProxy struct {
	mock.Mock
}

func (m *mockDeletionProxy) DeleteUser(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Log(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditStore) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]model.AuditEntry), args.Get(1).(model.Meta), args.Error(2)
}

type mockHandler struct {
	mock.Mock
	kind model.TrashKind
}

func (m *mockHandler) Kind() model.TrashKind {
	return m.kind
}

func (m *mockHandler) Purge(ctx context.Context, entry model.TrashEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// nopBus satisfies event.Bus for tests that do not care about events.
type nopBus struct{}

func (nopBus) Publish(event.Event) {}

func (nopBus) Subscribe() (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	return ch, func() {}
}
