package server

import (
	"fmt"
	"log/slog"
	"time"

	"nba-ingest-service/internal/cache"
	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/metrics"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/ratelimit"
)

// fallbackRequestsPerMinute applies when the configured tier has no quota.
const fallbackRequestsPerMinute = 5

// providerFactory assembles the provider source with the shared limiter,
// response cache and retry policy.
type providerFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newProviderFactory(logger *slog.Logger, metrics *metrics.Recorder) providerFactory {
	return providerFactory{logger: logger, metrics: metrics}
}

func (f providerFactory) build(cfg config.Config, responses *cache.ResponseCache) (providers.Source, *ratelimit.Limiter, error) {
	limiter, err := f.limiter(cfg)
	if err != nil {
		return providers.Source{}, nil, err
	}
	newClient := func(t providers.Transport) (providers.Client, error) {
		if err := registerQuotas(limiter, t.Name(), cfg.Quotas); err != nil {
			return nil, err
		}
		return providers.NewClient(providers.ClientConfig{
			Transport: t,
			Cache:     responses,
			Limiter:   limiter,
			TTLs:      cfg.Cache.TTLs,
			Retry: providers.RetryPolicy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseBackoff: cfg.Retry.BaseBackoff,
				MaxBackoff:  cfg.Retry.MaxBackoff,
			},
			Metrics: f.metrics,
			Logger:  f.logger,
		})
	}
	src, err := selectSource(cfg, f.logger, newClient)
	if err != nil {
		return providers.Source{}, nil, err
	}
	return src, limiter, nil
}

func (f providerFactory) limiter(cfg config.Config) (*ratelimit.Limiter, error) {
	rec := f.metrics
	observer := func(key string, wait time.Duration, timedOut bool) {
		rec.RecordLimiterWait(cfg.Provider, key, wait, timedOut)
	}
	fallback := toQuota(cfg.Quota())
	if fallback.Validate() != nil {
		fallback = ratelimit.PerMinute(fallbackRequestsPerMinute)
	}
	return ratelimit.New(fallback, observer)
}

// registerQuotas installs one bucket per configured tier for provider.
func registerQuotas(l *ratelimit.Limiter, provider string, quotas map[string]config.QuotaConfig) error {
	for name, q := range quotas {
		tier, err := providers.ParseTier(name)
		if err != nil {
			return err
		}
		if err := l.Register(providers.LimiterKey(provider, tier), toQuota(q)); err != nil {
			return fmt.Errorf("quota %s: %w", name, err)
		}
	}
	return nil
}

func toQuota(q config.QuotaConfig) ratelimit.Quota {
	return ratelimit.Quota{Requests: q.Requests, Window: q.Window, Burst: q.Burst}
}
