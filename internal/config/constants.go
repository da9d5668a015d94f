package config

import "time"

const (
	envDotEnvFile      = "DOTENV_FILE"
	envProvidersFile   = "PROVIDERS_FILE"
	envPort            = "PORT"
	envProvider        = "PROVIDER"
	envTier            = "PROVIDER_TIER"
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"
	envDatabaseURL     = "DATABASE_URL"
	envAdminToken      = "ADMIN_TOKEN"
	envCORSOrigins     = "CORS_ALLOWED_ORIGINS"
	envRateRPM         = "RATE_LIMIT_RPM"
	envRateBurst       = "RATE_LIMIT_BURST"
	envCacheBackend    = "CACHE_BACKEND"
	envCacheTTLRoster  = "CACHE_TTL_ROSTER"
	envCacheTTLSched   = "CACHE_TTL_SCHEDULE"
	envCacheTTLLive    = "CACHE_TTL_LIVE"
	envCacheTTLStats   = "CACHE_TTL_STATS"
	envRetryAttempts   = "RETRY_MAX_ATTEMPTS"
	envRetryBackoff    = "RETRY_BASE_BACKOFF"
	envRetryMaxBackoff = "RETRY_MAX_BACKOFF"
	envRunDeadline     = "INGEST_DEADLINE"
	envTeamCount       = "LEAGUE_TEAM_COUNT"
	envManifestBackend = "MANIFEST_BACKEND"
	envManifestDir     = "MANIFEST_DIR"
	envConcurrency     = "INGEST_CONCURRENCY"
	envPollEnabled     = "POLL_ENABLED"
	envPollInterval    = "POLL_INTERVAL"
	envMetricsPort     = "METRICS_PORT"
	envMetricsOn       = "METRICS_ENABLED"
	envOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService     = "OTEL_SERVICE_NAME"
	envOtelInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultDotEnvFile      = ".env"
	defaultPort            = "4000"
	defaultProvider        = "fixture"
	defaultTier            = "free"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultCORSOrigins     = "*"
	defaultCacheBackend    = "memory"
	defaultCacheTTLRoster  = 24 * time.Hour
	defaultCacheTTLSched   = time.Hour
	defaultCacheTTLLive    = time.Minute
	defaultCacheTTLStats   = 6 * time.Hour
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 500 * time.Millisecond
	defaultRetryMaxBackoff = 30 * time.Second
	defaultRunDeadline     = 5 * time.Minute
	defaultTeamCount       = 30
	defaultManifestBackend = "memory"
	defaultManifestDir     = "data/manifests"
	defaultConcurrency     = 4
	defaultPollEnabled     = true
	// Today's slate changes slowly outside game windows; free tier allows 5 req/min.
	defaultPollInterval = 10 * time.Minute
	defaultMetricsPort  = "9090"
	defaultServiceName  = "nba-ingest-service"
)

// defaultQuotas are requests per minute by subscription tier.
var defaultQuotas = map[string]int{
	"free":     5,
	"all-star": 60,
	"goat":     600,
}
