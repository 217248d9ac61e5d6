package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// maxRequestBody caps a JSON request body at 1 MiB.
const maxRequestBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps a service error to its status and user-facing
// message. Internal detail is only logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid input", Fields: verr.Fields})
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, domain.ErrAccountNotFound) && op == "login",
		errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrIncorrectPassword):
		writeError(w, http.StatusUnauthorized, "Old password is incorrect")
	case errors.Is(err, domain.ErrUnauthorized):
		logger.InfoContext(r.Context(), "request not authenticated", "op", op, "error", err)
		writeError(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, service.ErrMovieNotFound), errors.Is(err, service.ErrEpisodeNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrCatalogUnavailable):
		logger.WarnContext(r.Context(), "catalog upstream failed", "op", op, "error", err)
		writeError(w, http.StatusBadGateway, "Movie catalog unavailable")
	default:
		logger.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
