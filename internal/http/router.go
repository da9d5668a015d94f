package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"nba-ingest-service/internal/http/handlers"
	"nba-ingest-service/internal/http/middleware"
	"nba-ingest-service/internal/metrics"
)

// Deps are the pieces the router mounts. Admin and Metrics are optional.
type Deps struct {
	Handler     *handlers.Handler
	Admin       *handlers.AdminHandler
	Metrics     nethttp.Handler
	Recorder    *metrics.Recorder
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter registers HTTP routes on a mux.Router wrapped with request
// logging and CORS.
func NewRouter(d Deps) nethttp.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = handlers.NotFound(d.Logger)
	r.MethodNotAllowedHandler = handlers.MethodNotAllowed(d.Logger)
	r.Use(middleware.Middleware(d.Logger, d.Recorder))

	if d.Handler != nil {
		d.Handler.Register(r)
	}
	if d.Admin != nil {
		r.HandleFunc("/admin/ingest", d.Admin.Ingest).Methods(nethttp.MethodPost)
	}
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics).Methods(nethttp.MethodGet)
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return c.Handler(r)
}
