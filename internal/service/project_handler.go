package service

import (
	"context"
	"errors"
	"log/slog"

	"go-trash-bin/internal/model"
	"go-trash-bin/internal/storage"
)

// ProjectHandler purges one asset: its submissions in bounded batches, the
// document-store projections, the external form record, the asset row and
// the asset's file-storage prefix, in that order.
type ProjectHandler struct {
	assets      AssetStore
	xforms      XFormStore
	submissions SubmissionStore
	docs        DocStore
	store       storage.Storage
	batchSize   int
}

func NewProjectHandler(assets AssetStore, xforms XFormStore, submissions SubmissionStore, docs DocStore, store storage.Storage, batchSize int) *ProjectHandler {
	return &ProjectHandler{
		assets:      assets,
		xforms:      xforms,
		submissions: submissions,
		docs:        docs,
		store:       store,
		batchSize:   batchSize,
	}
}

func (h *ProjectHandler) Kind() model.TrashKind {
	return model.KindProject
}

func (h *ProjectHandler) Purge(ctx context.Context, entry model.TrashEntry) error {
	asset, err := h.assets.FindByID(ctx, entry.SubjectID)
	if errors.Is(err, model.ErrAssetNotFound) {
		// Already purged by an earlier run.
		return nil
	}
	if err != nil {
		return err
	}

	return h.purgeAsset(ctx, asset)
}

// purgeAsset is shared with the account handler, which deletes every asset
// a user owns before the user itself.
func (h *ProjectHandler) purgeAsset(ctx context.Context, asset model.Asset) error {
	xform, err := h.xforms.FindByFormUID(ctx, asset.FormUID)
	switch {
	case errors.Is(err, model.ErrXFormNotFound):
		// The relational form record is gone but the document store may
		// still hold projections; reconcile by identifier pattern instead
		// of treating the inconsistency as fatal.
		slog.Warn("xform record missing, purging document store by pattern",
			"asset_uid", asset.UID, "form_uid", asset.FormUID)
		if asset.FormUID != "" {
			if _, err := h.docs.DeleteByFormUID(ctx, asset.FormUID); err != nil {
				return err
			}
		}
	case err != nil:
		return err
	default:
		total, err := h.submissions.Count(ctx, asset.FormUID)
		if err != nil {
			return err
		}
		slog.Info("purging project submissions",
			"asset_uid", asset.UID, "form_uid", asset.FormUID, "submissions", total)

		for {
			deleted, err := h.submissions.DeleteBatch(ctx, asset.FormUID, h.batchSize)
			if err != nil {
				return err
			}
			if deleted == 0 {
				break
			}
		}

		if _, err := h.docs.DeleteByUserFormID(ctx, xform.UserFormID()); err != nil {
			return err
		}
		// Surfaces projections written concurrently with the purge.
		if left, err := h.docs.CountByUserFormID(ctx, xform.UserFormID()); err == nil && left > 0 {
			slog.Warn("submission projections remained after purge",
				"userform_id", xform.UserFormID(), "count", left)
		}

		if err := h.xforms.Delete(ctx, asset.FormUID); err != nil {
			return err
		}
	}

	if err := h.assets.Delete(ctx, asset.ID); err != nil {
		return err
	}

	// Attachment keys start with the asset uid, so this removes every
	// stored file of the form.
	if _, err := h.store.DeletePrefix(ctx, asset.UID); err != nil {
		return err
	}

	return nil
}
