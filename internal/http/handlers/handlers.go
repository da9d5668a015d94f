// Package handlers serves the read-only query API over ingested entities and
// manifests, plus the admin ingest trigger.
package handlers

import (
	"errors"
	"log/slog"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"nba-ingest-service/internal/app/games"
	"nba-ingest-service/internal/app/manifests"
	"nba-ingest-service/internal/app/stats"
	"nba-ingest-service/internal/app/teams"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/poller"
)

// Services groups the query services the handler reads from.
type Services struct {
	Games     *games.Service
	Teams     *teams.Service
	Stats     *stats.Service
	Manifests *manifests.Service
}

// Handler wires HTTP routes to the query services.
type Handler struct {
	svc      Services
	logger   *slog.Logger
	statusFn func() poller.Status
	router   *mux.Router
}

// NewHandler constructs a Handler. statusFn may be nil when no poller runs.
func NewHandler(svc Services, logger *slog.Logger, statusFn func() poller.Status) *Handler {
	h := &Handler{
		svc:      svc,
		logger:   logger,
		statusFn: statusFn,
	}
	h.router = mux.NewRouter()
	h.router.NotFoundHandler = NotFound(logger)
	h.router.MethodNotAllowedHandler = MethodNotAllowed(logger)
	h.Register(h.router)
	return h
}

// Register mounts the query routes on r.
func (h *Handler) Register(r *mux.Router) {
	get := func(path string, fn nethttp.HandlerFunc) {
		r.HandleFunc(path, fn).Methods(nethttp.MethodGet)
	}
	get("/health", h.Health)
	get("/ready", h.Ready)
	get("/teams", h.Teams)
	get("/teams/{id}", h.TeamByID)
	get("/games", h.Games)
	get("/games/{id}", h.GameByID)
	get("/stats", h.SeasonStats)
	get("/stats/{team}/{season}", h.TeamSeasonStat)
	get("/manifests", h.Manifests)
	get("/manifests/latest", h.LatestManifest)
	get("/manifests/verify", h.VerifyManifests)
	get("/manifests/{hash}", h.ManifestByHash)
}

// ServeHTTP dispatches through the handler's own router.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	h.router.ServeHTTP(w, r)
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic (e.g., for Kubernetes probes).
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.statusFn == nil {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, nethttp.StatusOK, map[string]any{"status": "ready", "poller": status}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, nethttp.StatusServiceUnavailable, msg, h.logger)
}

// Teams lists stored teams; ?active=true limits to current franchises.
func (h *Handler) Teams(w nethttp.ResponseWriter, r *nethttp.Request) {
	fn := h.svc.Teams.Teams
	if active, _ := strconv.ParseBool(r.URL.Query().Get("active")); active {
		fn = h.svc.Teams.ActiveTeams
	}
	items, err := fn(r.Context())
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"teams": items}, h.logger)
}

// TeamByID returns one team.
func (h *Handler) TeamByID(w nethttp.ResponseWriter, r *nethttp.Request) {
	id, ok := h.pathInt(w, r, "id", "invalid team id")
	if !ok {
		return
	}
	team, err := h.svc.Teams.TeamByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, team, h.logger)
}

// Games returns games for ?date= or ?start=&end=.
func (h *Handler) Games(w nethttp.ResponseWriter, r *nethttp.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if date := strings.TrimSpace(q.Get("date")); date != "" {
		start, end = date, date
	}
	if start == "" {
		writeError(w, r, nethttp.StatusBadRequest, "date or start is required (YYYY-MM-DD)", h.logger)
		return
	}
	resp, err := h.svc.Games.Range(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, resp, h.logger)
}

// GameByID returns a specific game if present.
func (h *Handler) GameByID(w nethttp.ResponseWriter, r *nethttp.Request) {
	id, ok := h.pathInt(w, r, "id", "invalid game id")
	if !ok {
		return
	}
	game, err := h.svc.Games.GameByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, game, h.logger)
}

// SeasonStats lists every team's aggregate for ?season=.
func (h *Handler) SeasonStats(w nethttp.ResponseWriter, r *nethttp.Request) {
	season, err := strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "season is required", h.logger)
		return
	}
	items, err := h.svc.Stats.Season(r.Context(), season)
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"season": season, "stats": items}, h.logger)
}

// TeamSeasonStat returns one team's aggregate for a season.
func (h *Handler) TeamSeasonStat(w nethttp.ResponseWriter, r *nethttp.Request) {
	team, ok := h.pathInt(w, r, "team", "invalid team id")
	if !ok {
		return
	}
	season, ok := h.pathInt(w, r, "season", "invalid season")
	if !ok {
		return
	}
	st, err := h.svc.Stats.TeamSeason(r.Context(), team, int(season))
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, st, h.logger)
}

// Manifests lists manifests by ?unit= or ?date=.
func (h *Handler) Manifests(w nethttp.ResponseWriter, r *nethttp.Request) {
	q := r.URL.Query()
	var (
		items []manifest.Manifest
		err   error
	)
	switch {
	case q.Get("unit") != "":
		items, err = h.svc.Manifests.ByUnit(r.Context(), q.Get("unit"))
	case q.Get("date") != "":
		items, err = h.svc.Manifests.ByDate(r.Context(), q.Get("date"))
		if err != nil {
			writeError(w, r, nethttp.StatusBadRequest, "invalid date format (expected YYYY-MM-DD)", h.logger)
			return
		}
	default:
		writeError(w, r, nethttp.StatusBadRequest, "unit or date is required", h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	if items == nil {
		items = []manifest.Manifest{}
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"manifests": items}, h.logger)
}

// ManifestByHash returns a single manifest.
func (h *Handler) ManifestByHash(w nethttp.ResponseWriter, r *nethttp.Request) {
	m, err := h.svc.Manifests.ByHash(r.Context(), mux.Vars(r)["hash"])
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

// LatestManifest returns the chain head.
func (h *Handler) LatestManifest(w nethttp.ResponseWriter, r *nethttp.Request) {
	m, err := h.svc.Manifests.Latest(r.Context())
	if err != nil {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

// VerifyManifests checks the hash chain end to end.
func (h *Handler) VerifyManifests(w nethttp.ResponseWriter, r *nethttp.Request) {
	err := h.svc.Manifests.Verify(r.Context())
	if err != nil && !errors.Is(err, manifest.ErrChainBroken) {
		writeServiceError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	if err != nil {
		writeJSON(w, nethttp.StatusConflict, map[string]string{"status": "broken", "error": err.Error()}, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

func (h *Handler) pathInt(w nethttp.ResponseWriter, r *nethttp.Request, name, msg string) (int64, bool) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || v <= 0 {
		writeError(w, r, nethttp.StatusBadRequest, msg, h.logger)
		return 0, false
	}
	return v, true
}
