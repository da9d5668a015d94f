package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds runtime configuration for the server and the ingest CLI.
type Config struct {
	Port        string
	Provider    string
	Tier        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	AdminToken  string
	CORSOrigins []string
	Balldontlie BalldontlieConfig
	Quotas      map[string]QuotaConfig
	Cache       CacheConfig
	Retry       RetryConfig
	Pipeline    PipelineConfig
	Poller      PollerConfig
	Metrics     MetricsConfig
}

// QuotaConfig is a token bucket definition for one tier.
type QuotaConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// RetryConfig bounds transient provider retries.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// PipelineConfig controls ingestion runs.
type PipelineConfig struct {
	Deadline        time.Duration
	TeamCount       int
	ManifestBackend string
	ManifestDir     string
	Concurrency     int
}

// PollerConfig controls scheduled ingestion of today's games.
type PollerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration from a .env file, environment variables and the
// optional providers file, falling back to sensible defaults.
func Load() (Config, error) {
	loadDotEnv(envOrDefault(envDotEnvFile, defaultDotEnvFile))

	cfg := Config{
		Port:        envOrDefault(envPort, defaultPort),
		Provider:    strings.ToLower(envOrDefault(envProvider, defaultProvider)),
		Tier:        strings.ToLower(envOrDefault(envTier, defaultTier)),
		LogLevel:    envOrDefault(envLogLevel, defaultLogLevel),
		LogFormat:   envOrDefault(envLogFormat, defaultLogFormat),
		DatabaseURL: envOrDefault(envDatabaseURL, ""),
		AdminToken:  envOrDefault(envAdminToken, ""),
		CORSOrigins: splitList(envOrDefault(envCORSOrigins, defaultCORSOrigins)),
		Balldontlie: loadBalldontlie(),
		Quotas:      loadQuotas(),
		Cache:       loadCache(),
		Retry: RetryConfig{
			MaxAttempts: intEnvOrDefault(envRetryAttempts, defaultRetryAttempts),
			BaseBackoff: durationEnvOrDefault(envRetryBackoff, defaultRetryBackoff),
			MaxBackoff:  durationEnvOrDefault(envRetryMaxBackoff, defaultRetryMaxBackoff),
		},
		Pipeline: PipelineConfig{
			Deadline:        durationEnvOrDefault(envRunDeadline, defaultRunDeadline),
			TeamCount:       intEnvOrDefault(envTeamCount, defaultTeamCount),
			ManifestBackend: strings.ToLower(envOrDefault(envManifestBackend, defaultManifestBackend)),
			ManifestDir:     envOrDefault(envManifestDir, defaultManifestDir),
			Concurrency:     intEnvOrDefault(envConcurrency, defaultConcurrency),
		},
		Poller: PollerConfig{
			Enabled:  boolEnvOrDefault(envPollEnabled, defaultPollEnabled),
			Interval: durationEnvOrDefault(envPollInterval, defaultPollInterval),
		},
		Metrics: loadMetrics(),
	}

	if path := envOrDefault(envProvidersFile, ""); path != "" {
		file, err := readProvidersFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := file.apply(&cfg); err != nil {
			return Config{}, err
		}
	}

	if _, ok := cfg.Quotas[cfg.Tier]; !ok {
		return Config{}, fmt.Errorf("config: no quota for tier %q", cfg.Tier)
	}
	return cfg, nil
}

// Quota returns the quota for the configured tier.
func (c Config) Quota() QuotaConfig {
	return c.Quotas[c.Tier]
}

func loadQuotas() map[string]QuotaConfig {
	quotas := make(map[string]QuotaConfig, len(defaultQuotas))
	for tier, rpm := range defaultQuotas {
		quotas[tier] = QuotaConfig{Requests: rpm, Window: time.Minute, Burst: 1}
	}
	tier := strings.ToLower(envOrDefault(envTier, defaultTier))
	q, ok := quotas[tier]
	if !ok {
		return quotas
	}
	q.Requests = intEnvOrDefault(envRateRPM, q.Requests)
	q.Burst = intEnvOrDefault(envRateBurst, q.Burst)
	quotas[tier] = q
	return quotas
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
