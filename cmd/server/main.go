package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/server"
)

const appVersion = "dev"

func main() {
	if os.Getenv("SKIP_SERVER_RUN") == "1" {
		return
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "nba-ingest-service",
		Version: appVersion,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logging.Error(logger, "server setup failed", err)
		return err
	}
	srv.Run(ctx, stop)
	return nil
}
