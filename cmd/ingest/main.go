// Command ingest runs ingest units once from the command line and prints one
// JSON result per unit.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/ingest"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/server"
	"nba-ingest-service/internal/timeutil"
)

const appVersion = "dev"

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	kind         string
	date         string
	end          string
	season       int
	forceRefresh bool
	dryRun       bool
	timeout      time.Duration
	concurrency  int
	sweepCache   bool
	verify       bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.kind, "kind", "", "Unit kind: games, teams or stats (required unless -sweep-cache or -verify)")
	fs.StringVar(&o.date, "date", "", "Game date YYYY-MM-DD (games; defaults to today UTC)")
	fs.StringVar(&o.end, "end", "", "Inclusive end date YYYY-MM-DD for a games range")
	fs.IntVar(&o.season, "season", 0, "Season start year (stats)")
	fs.BoolVar(&o.forceRefresh, "force-refresh", false, "Bypass the response cache")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Fetch and validate without persisting")
	fs.DurationVar(&o.timeout, "timeout", 0, "Overall deadline for the batch (0 uses the pipeline default per unit)")
	fs.IntVar(&o.concurrency, "concurrency", 0, "Units run in parallel (0 uses PIPELINE_CONCURRENCY)")
	fs.BoolVar(&o.sweepCache, "sweep-cache", false, "Remove expired response cache entries")
	fs.BoolVar(&o.verify, "verify", false, "Verify the manifest hash chain")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.kind == "" && !o.sweepCache && !o.verify {
		return o, errors.New("-kind is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "nba-ingest",
		Version: appVersion,
		Output:  stderr,
	})

	stack, err := server.BuildStack(ctx, cfg, logger, nil)
	if err != nil {
		logging.Error(logger, "setup failed", err)
		return exitFailed
	}
	defer stack.Close()

	if opts.sweepCache {
		n, err := stack.SweepCache(ctx)
		if err != nil {
			logging.Error(logger, "cache sweep failed", err)
			return exitFailed
		}
		logging.Info(logger, "cache sweep complete", slog.Int(logging.FieldCount, n))
	}
	if opts.verify {
		if err := manifest.Verify(ctx, stack.Manifests); err != nil {
			logging.Error(logger, "manifest chain verification failed", err)
			return exitFailed
		}
		logging.Info(logger, "manifest chain verified")
	}
	if opts.kind == "" {
		return exitOK
	}

	return ingestUnits(ctx, stack.Pipeline, cfg, opts, stdout, logger)
}

func ingestUnits(ctx context.Context, p *ingest.Pipeline, cfg config.Config, opts options, stdout io.Writer, logger *slog.Logger) int {
	kind, err := ingest.ParseKind(opts.kind)
	if err != nil {
		logging.Error(logger, "invalid kind", err)
		return exitUsage
	}
	date := opts.date
	if kind == ingest.KindGames && date == "" {
		date = timeutil.FormatDate(time.Now().UTC())
	}
	units, err := ingest.Plan{Kind: kind, Date: date, End: opts.end, Season: opts.season}.Units(p.Provider())
	if err != nil {
		logging.Error(logger, "invalid plan", err)
		return exitUsage
	}

	runOpts := ingest.Options{ForceRefresh: opts.forceRefresh, DryRun: opts.dryRun}
	if opts.timeout > 0 {
		runOpts.Deadline = time.Now().Add(opts.timeout)
	}
	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = cfg.Pipeline.Concurrency
	}

	results, runErr := p.RunMany(ctx, units, runOpts, concurrency)

	enc := json.NewEncoder(stdout)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			logging.Error(logger, "write result", err)
			return exitFailed
		}
	}
	if runErr != nil {
		logging.Warn(logger, "ingest finished with failures", slog.Any("err", runErr))
		return exitFailed
	}
	return exitOK
}
