package service

import (
	"context"
	"errors"

	"go-trash-bin/internal/model"
	"go-trash-bin/internal/storage"
)

// AttachmentHandler purges a single attachment: the stored file first, then
// the row is flagged deleted. If the process dies between the two steps the
// next run finds the file already gone and still flips the flag.
type AttachmentHandler struct {
	attachments AttachmentStore
	store       storage.Storage
}

func NewAttachmentHandler(attachments AttachmentStore, store storage.Storage) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, store: store}
}

func (h *AttachmentHandler) Kind() model.TrashKind {
	return model.KindAttachment
}

func (h *AttachmentHandler) Purge(ctx context.Context, entry model.TrashEntry) error {
	att, err := h.attachments.FindByID(ctx, entry.SubjectID)
	if errors.Is(err, model.ErrAttachmentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if att.DeleteStatus == model.AttachmentDeleted {
		return nil
	}

	if att.StorageKey != "" {
		if err := h.store.Delete(ctx, att.StorageKey); err != nil {
			return err
		}
	}

	return h.attachments.MarkDeleted(ctx, att.ID)
}
