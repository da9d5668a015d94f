package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nba-ingest-service/internal/app/games"
	"nba-ingest-service/internal/app/manifests"
	"nba-ingest-service/internal/app/stats"
	"nba-ingest-service/internal/app/teams"
	"nba-ingest-service/internal/config"
	httpserver "nba-ingest-service/internal/http"
	"nba-ingest-service/internal/http/handlers"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/metrics"
	"nba-ingest-service/internal/poller"
	"nba-ingest-service/internal/providers"
)

var metricsSetup = metrics.Setup

// cacheSweepInterval remains a var for tests to override.
var cacheSweepInterval = 15 * time.Minute

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	stack         *Stack
	httpServer    httpServer
	metricsServer httpServer
	poller        Poller
	metricsStop   func(context.Context) error
}

// New constructs a server from configuration: storage, provider, pipeline,
// poller and HTTP API.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithMetrics(ctx, cfg, logger, nil)
}

func newServerWithMetrics(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	recorder, metricsHandler, metricsShutdown := buildMetrics(cfg, logger, recorder)

	stack, err := BuildStack(ctx, cfg, logger, recorder)
	if err != nil {
		if metricsShutdown != nil {
			_ = metricsShutdown(ctx)
		}
		return nil, err
	}

	plr := buildPoller(cfg, stack, logger, recorder)

	// Metrics share the API listener when no separate port is configured.
	var metricsSrv httpServer
	var mounted http.Handler
	if metricsHandler != nil {
		if cfg.Metrics.Port == "" || cfg.Metrics.Port == cfg.Port {
			mounted = metricsHandler
		} else {
			metricsSrv = netHTTPServer{srv: &http.Server{
				Addr:              ":" + cfg.Metrics.Port,
				Handler:           metricsHandler,
				ReadHeaderTimeout: readTimeout,
			}}
		}
	}
	httpSrv := buildHTTPServer(cfg, stack, logger, recorder, plr, mounted)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		stack:         stack,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		poller:        plr,
		metricsStop:   metricsShutdown,
	}, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, plr Poller) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		poller:     plr,
	}
}

func buildPoller(cfg config.Config, stack *Stack, logger *slog.Logger, recorder *metrics.Recorder) Poller {
	if !cfg.Poller.Enabled {
		return disabledPoller{}
	}
	loc := providers.ResolveTimezone(cfg.Balldontlie.Timezone)
	return poller.New(stack.Pipeline, logger, recorder, cfg.Poller.Interval, loc)
}

func buildHTTPServer(cfg config.Config, stack *Stack, logger *slog.Logger, recorder *metrics.Recorder, plr Poller, metricsHandler http.Handler) httpServer {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	var statusFn func() poller.Status
	if _, disabled := plr.(disabledPoller); plr != nil && !disabled {
		statusFn = plr.Status
	}

	handler := handlers.NewHandler(handlers.Services{
		Games:     games.NewService(stack.Entities),
		Teams:     teams.NewService(stack.Entities),
		Stats:     stats.NewService(stack.Entities),
		Manifests: manifests.NewService(stack.Manifests),
	}, logger, statusFn)

	var admin *handlers.AdminHandler
	if cfg.AdminToken != "" {
		admin = handlers.NewAdminHandler(stack.Pipeline, cfg.AdminToken, cfg.Pipeline.Concurrency, logger)
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Handler:     handler,
		Admin:       admin,
		Metrics:     metricsHandler,
		Recorder:    recorder,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeoutFor(admin != nil, cfg.Pipeline.Deadline),
		IdleTimeout:  idleTimeout,
	}
	return netHTTPServer{srv: srv}
}

// Run starts the poller and HTTP server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.poller.Start(ctx)
	if s.stack != nil {
		go s.sweepLoop(ctx)
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

// sweepLoop drops expired cache rows until ctx ends.
func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.stack.SweepCache(ctx)
			if err != nil {
				logging.Warn(s.logger, "cache sweep failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				logging.Info(s.logger, "cache sweep removed expired entries", slog.Int(logging.FieldCount, n))
			}
		}
	}
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", slog.Any("err", err))
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", slog.Any("err", err))
		}
	}

	if err := s.poller.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop poller", err)
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	s.stack.Close()
	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, http.Handler, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", slog.Any("err", err))
		return metrics.NewRecorder(), nil, nil
	}
	if !recCfg.Enabled {
		handler = nil
	}
	return rec, handler, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", slog.Any("err", err))
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Stack exposes the assembled ingest core.
func (s *Server) Stack() *Stack {
	return s.stack
}
