package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-trash-bin/internal/model"
	"go-trash-bin/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrEntryExists) {
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "Subject is already in the trash"
	} else if errors.Is(err, model.ErrEntryNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Trash entry not found"
	} else if errors.Is(err, model.ErrTaskInProgress) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Deletion already in progress"
	} else if errors.Is(err, model.ErrJobNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Scheduled job not found"
	} else if errors.Is(err, model.ErrUserNotFound) ||
		errors.Is(err, model.ErrAssetNotFound) ||
		errors.Is(err, model.ErrXFormNotFound) ||
		errors.Is(err, model.ErrAttachmentNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Subject not found"
	} else if errors.Is(err, model.ErrInvalidKind) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Unknown trash kind"
	} else if errors.Is(err, model.ErrInvalidGracePeriod) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid grace period"
	} else if errors.Is(err, model.ErrNoSubjects) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "No subjects given"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, apierror.New("BAD_REQUEST", message, "", http.StatusBadRequest))
}
