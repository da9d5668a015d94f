package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nba-ingest-service/internal/cache"
	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/ingest"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/metrics"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/ratelimit"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/validate"
)

// Stack is the ingest core assembled from configuration. Both the HTTP
// server and the ingest CLI run on it.
type Stack struct {
	Pipeline  *ingest.Pipeline
	Entities  store.Entities
	Manifests manifest.Store
	Responses *cache.ResponseCache
	Limiter   *ratelimit.Limiter

	stores storeComponents
}

// BuildStack wires storage, the gated provider client and the pipeline.
func BuildStack(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Stack, error) {
	tier := providers.TierFree
	if strings.TrimSpace(cfg.Tier) != "" {
		t, err := providers.ParseTier(cfg.Tier)
		if err != nil {
			return nil, err
		}
		tier = t
	}

	sc, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	responses := cache.New(sc.responses, logger)

	src, limiter, err := newProviderFactory(logger, recorder).build(cfg, responses)
	if err != nil {
		sc.close()
		return nil, fmt.Errorf("server: build provider: %w", err)
	}

	pipeline, err := ingest.New(ingest.Config{
		Source:    src,
		Tier:      tier,
		Validator: validate.New(cfg.Pipeline.TeamCount, logger),
		Entities:  sc.entities,
		Manifests: sc.manifests,
		Deadline:  cfg.Pipeline.Deadline,
		Metrics:   recorder,
		Logger:    logger,
	})
	if err != nil {
		sc.close()
		return nil, fmt.Errorf("server: build pipeline: %w", err)
	}

	return &Stack{
		Pipeline:  pipeline,
		Entities:  sc.entities,
		Manifests: sc.manifests,
		Responses: responses,
		Limiter:   limiter,
		stores:    sc,
	}, nil
}

// SweepCache removes expired response cache rows.
func (s *Stack) SweepCache(ctx context.Context) (int, error) {
	return s.Responses.Sweep(ctx)
}

// Close releases the database pool when one was opened.
func (s *Stack) Close() {
	if s == nil {
		return
	}
	s.stores.close()
}
