package testutil

import (
	"testing"
	"time"

	"nba-ingest-service/internal/cache"
	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/ingest"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/providers/balldontlie"
	"nba-ingest-service/internal/providers/fixture"
	"nba-ingest-service/internal/ratelimit"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/validate"
)

// FixtureEnv is a complete pipeline over the offline fixture provider.
type FixtureEnv struct {
	Pipeline  *ingest.Pipeline
	Entities  *store.MemoryStore
	Manifests *manifest.MemoryStore
	Cache     *cache.MemoryStore
}

// NewFixturePipeline wires the fixture provider through the gated client,
// limiter and cache into a pipeline backed by memory stores.
func NewFixturePipeline(t testing.TB, tier providers.Tier) *FixtureEnv {
	t.Helper()
	limiter, err := ratelimit.New(ratelimit.PerMinute(6000), nil)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	cacheData := cache.NewMemoryStore()
	client, err := providers.NewClient(providers.ClientConfig{
		Transport: fixture.New(),
		Cache:     cache.New(cacheData, nil),
		Limiter:   limiter,
		TTLs: map[string]time.Duration{
			config.TTLRoster:   time.Hour,
			config.TTLSchedule: time.Minute,
			config.TTLLive:     time.Second,
			config.TTLStats:    time.Hour,
		},
		Retry: providers.RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	env := &FixtureEnv{
		Entities:  store.NewMemoryStore(),
		Manifests: manifest.NewMemoryStore(),
		Cache:     cacheData,
	}
	env.Pipeline, err = ingest.New(ingest.Config{
		Source: providers.Source{
			Client:     client,
			Normalizer: balldontlie.NewNormalizer("UTC"),
			MaxPages:   3,
		},
		Tier:      tier,
		Validator: validate.New(validate.DefaultTeamCount, nil),
		Entities:  env.Entities,
		Manifests: env.Manifests,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return env
}
