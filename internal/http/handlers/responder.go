package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	appgames "nba-ingest-service/internal/app/games"
	"nba-ingest-service/internal/http/middleware"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error(logger, "failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get("X-Request-ID")
	}
	body := map[string]string{"error": message}
	if reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body, logger)
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, manifest.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found", logger)
	case errors.Is(err, appgames.ErrInvalidRange):
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
	default:
		logging.Error(logger, "request failed", err)
		writeError(w, r, http.StatusInternalServerError, "internal error", logger)
	}
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}

// NotFound answers unmatched routes with the JSON error body.
func NotFound(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found", logger)
	})
}

// MethodNotAllowed answers routes matched with the wrong verb.
func MethodNotAllowed(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", logger)
	})
}
