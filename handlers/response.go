package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chat-core/services"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respondWithError(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func respondWithSuccess(w http.ResponseWriter, data any) {
	respondWithStatus(w, http.StatusOK, data)
}

func respondWithStatus(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// respondWithServiceError maps the service error taxonomy onto HTTP. Storage
// details stay in the log.
func respondWithServiceError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateUsername):
		respondWithError(w, "Conflict", err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrConcurrentCreateConflict):
		respondWithError(w, "Conflict", "Room creation raced, try again", http.StatusConflict)
	case errors.Is(err, services.ErrAuthFailure):
		respondWithError(w, "Authentication failed", err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrNoSession):
		respondWithError(w, "Unauthorized", err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrNotFound):
		respondWithError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotAMember):
		respondWithError(w, "Forbidden", err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrNoMembers):
		respondWithError(w, "Invalid request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Error(op+" failed", zap.Error(err))
		respondWithError(w, "Service unavailable", "Storage is temporarily unavailable", http.StatusServiceUnavailable)
	default:
		log.Error(op+" failed", zap.Error(err))
		respondWithError(w, "Internal error", "Unexpected server error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return false
	}
	return true
}
