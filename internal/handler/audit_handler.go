package handler

import (
	"net/http"
	"strconv"

	"go-trash-bin/internal/model"
	"go-trash-bin/internal/service"
)

type AuditHandler struct {
	audits *service.AuditService
}

func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List returns trail records filtered by the query string.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := model.AuditQuery{
		Action:    q.Get("action"),
		ActorID:   q.Get("actor_id"),
		AppLabel:  q.Get("app_label"),
		ModelName: q.Get("model_name"),
		ObjectID:  q.Get("object_id"),
		From:      q.Get("from"),
		To:        q.Get("to"),
		Page:      parsePositiveInt(q.Get("page"), 1),
		Limit:     parsePositiveInt(q.Get("limit"), 50),
	}
	if query.Limit > 500 {
		query.Limit = 500
	}

	entries, meta, err := h.audits.Query(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, &meta)
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
