package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-trash-bin/internal/model"
	"go-trash-bin/internal/service"
)

type TrashHandler struct {
	trash *service.TrashService
}

func NewTrashHandler(trash *service.TrashService) *TrashHandler {
	return &TrashHandler{trash: trash}
}

type createTrashRequest struct {
	Kind              string               `json:"kind"`
	Subjects          []model.TrashSubject `json:"subjects"`
	GracePeriodDays   *int                 `json:"grace_period_days,omitempty"`
	RetainPlaceholder bool                 `json:"retain_placeholder,omitempty"`
}

type putBackRequest struct {
	Kind     string               `json:"kind"`
	Subjects []model.TrashSubject `json:"subjects"`
}

// Create moves one or more subjects of a kind to the trash.
func (h *TrashHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTrashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	opts := model.TrashOptions{
		Kind:              model.TrashKind(req.Kind),
		RetainPlaceholder: req.RetainPlaceholder,
		GracePeriodDays:   h.trash.DefaultGracePeriodDays(),
	}
	if req.GracePeriodDays != nil {
		opts.GracePeriodDays = *req.GracePeriodDays
	}

	entries, err := h.trash.MoveToTrash(r.Context(), actorFromRequest(r), req.Subjects, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, entries, nil)
}

// PutBack restores pending subjects out of the trash.
func (h *TrashHandler) PutBack(w http.ResponseWriter, r *http.Request) {
	var req putBackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := h.trash.PutBack(r.Context(), actorFromRequest(r), req.Subjects, model.TrashKind(req.Kind)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, nil)
}

// List returns ledger entries, optionally filtered by status.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.TrashStatus(r.URL.Query().Get("status"))

	entries, err := h.trash.List(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, nil)
}

// Get returns one ledger entry by id.
func (h *TrashHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.trash.Find(r.Context(), chi.URLParam(r, "trash_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entry, nil)
}

// Retry re-arms a failed entry for an immediate attempt.
func (h *TrashHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.trash.RetryFailed(r.Context(), chi.URLParam(r, "trash_id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, nil, nil)
}

// Empty fires every manual-only entry now.
func (h *TrashHandler) Empty(w http.ResponseWriter, r *http.Request) {
	count, err := h.trash.EmptyTrash(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]int{"enabled": count}, nil)
}
