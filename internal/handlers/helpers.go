package handlers

import (
	"encoding/json"
	"net/http"

	"tubedigest-backend/internal/models"
	"tubedigest-backend/internal/services"
	"tubedigest-backend/internal/storage"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Error(), r))
	case *storage.DuplicateError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Error(), r))
	case *storage.CorruptionError:
		writeJSON(w, http.StatusInternalServerError, errorResp("STORAGE_CORRUPTED", "Subscription storage is corrupted and needs manual repair", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
