package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nba-ingest-service/internal/http/requestutil"
	"nba-ingest-service/internal/ingest"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/timeutil"
)

// BatchRunner runs a set of ingest units; *ingest.Pipeline satisfies it.
type BatchRunner interface {
	Provider() string
	RunMany(ctx context.Context, units []ingest.Unit, opts ingest.Options, concurrency int) ([]ingest.Result, error)
}

// AdminHandler exposes admin-only endpoints.
type AdminHandler struct {
	runner      BatchRunner
	token       string
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewAdminHandler constructs an AdminHandler. An empty token disables every
// admin route.
func NewAdminHandler(runner BatchRunner, token string, concurrency int, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		runner:      runner,
		token:       token,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// IngestRequest is the body accepted by POST /admin/ingest.
type IngestRequest struct {
	Kind         string `json:"kind"`
	Date         string `json:"date,omitempty"`
	End          string `json:"end,omitempty"`
	Season       int    `json:"season,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

// IngestResponse reports one result per planned unit.
type IngestResponse struct {
	Provider string          `json:"provider"`
	Results  []ingest.Result `json:"results"`
}

// Ingest plans and runs units for the request. Responds 200 when every unit
// finished DONE and 502 when any unit FAILED.
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	if !h.authorize(r) {
		logging.Warn(logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", logger)
		return
	}
	if h.runner == nil {
		writeError(w, r, http.StatusServiceUnavailable, "ingest pipeline not configured", logger)
		return
	}

	var req IngestRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
		return
	}

	kind, err := ingest.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
		return
	}
	date := strings.TrimSpace(req.Date)
	if kind == ingest.KindGames && date == "" {
		date = timeutil.FormatDate(h.now().UTC())
	}
	plan := ingest.Plan{Kind: kind, Date: date, End: strings.TrimSpace(req.End), Season: req.Season}
	units, err := plan.Units(h.runner.Provider())
	if err != nil {
		logging.Warn(logger, "admin ingest invalid plan", slog.String(logging.FieldUnit, string(kind)), slog.Any("err", err))
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
		return
	}

	opts := ingest.Options{ForceRefresh: req.ForceRefresh, DryRun: req.DryRun}
	results, runErr := h.runner.RunMany(r.Context(), units, opts, h.concurrency)

	status := http.StatusOK
	if runErr != nil {
		status = http.StatusBadGateway
		logging.Warn(logger, "admin ingest had failures",
			slog.Int(logging.FieldCount, len(units)),
			slog.Any("err", runErr),
		)
	} else {
		logging.Info(logger, "admin ingest complete",
			slog.String(logging.FieldProvider, h.runner.Provider()),
			slog.Int(logging.FieldCount, len(units)),
		)
	}
	writeJSON(w, status, IngestResponse{Provider: h.runner.Provider(), Results: results}, logger)
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}
