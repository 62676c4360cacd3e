package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-trash-bin/internal/model"
	"go-trash-bin/internal/storage"
)

func TestAttachmentPurge_DeletesFileBeforeFlaggingRow(t *testing.T) {
	attachments := new(mockAttachmentStore)
	store := new(storage.MockStorage)
	h := NewAttachmentHandler(attachments, store)

	att := model.Attachment{ID: "a1", StorageKey: "alice/f1/photo.jpg", DeleteStatus: model.AttachmentNormal}

	var order []string
	attachments.On("FindByID", mock.Anything, "a1").Return(att, nil)
	store.On("Delete", mock.Anything, "alice/f1/photo.jpg").Run(func(mock.Arguments) {
		order = append(order, "storage")
	}).Return(nil)
	attachments.On("MarkDeleted", mock.Anything, "a1").Run(func(mock.Arguments) {
		order = append(order, "flag")
	}).Return(nil)

	require.NoError(t, h.Purge(context.Background(), model.TrashEntry{SubjectID: "a1"}))
	assert.Equal(t, []string{"storage", "flag"}, order)
}

func TestAttachmentPurge_StorageFailureLeavesRowUnflagged(t *testing.T) {
	attachments := new(mockAttachmentStore)
	store := new(storage.MockStorage)
	h := NewAttachmentHandler(attachments, store)

	att := model.Attachment{ID: "a1", StorageKey: "alice/f1/photo.jpg"}
	attachments.On("FindByID", mock.Anything, "a1").Return(att, nil)
	store.On("Delete", mock.Anything, "alice/f1/photo.jpg").Return(errors.New("bucket unreachable"))

	err := h.Purge(context.Background(), model.TrashEntry{SubjectID: "a1"})

	require.Error(t, err)
	attachments.AssertNotCalled(t, "MarkDeleted", mock.Anything, mock.Anything)
}

func TestAttachmentPurge_AlreadyFlaggedIsNoOp(t *testing.T) {
	attachments := new(mockAttachmentStore)
	store := new(storage.MockStorage)
	h := NewAttachmentHandler(attachments, store)

	att := model.Attachment{ID: "a1", StorageKey: "k", DeleteStatus: model.AttachmentDeleted}
	attachments.On("FindByID", mock.Anything, "a1").Return(att, nil)

	require.NoError(t, h.Purge(context.Background(), model.TrashEntry{SubjectID: "a1"}))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAttachmentPurge_MissingRowIsNoOp(t *testing.T) {
	attachments := new(mockAttachmentStore)
	store := new(storage.MockStorage)
	h := NewAttachmentHandler(attachments, store)

	attachments.On("FindByID", mock.Anything, "a1").Return(model.Attachment{}, model.ErrAttachmentNotFound)

	require.NoError(t, h.Purge(context.Background(), model.TrashEntry{SubjectID: "a1"}))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
