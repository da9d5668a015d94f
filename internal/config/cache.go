package config

import (
	"strings"
	"time"
)

// TTL classes used by provider endpoint catalogs.
const (
	TTLRoster   = "roster"
	TTLSchedule = "schedule"
	TTLLive     = "live"
	TTLStats    = "stats"
)

// CacheConfig selects the response cache backend and per-class TTLs.
type CacheConfig struct {
	Backend string
	TTLs    map[string]time.Duration
}

func loadCache() CacheConfig {
	return CacheConfig{
		Backend: strings.ToLower(envOrDefault(envCacheBackend, defaultCacheBackend)),
		TTLs: map[string]time.Duration{
			TTLRoster:   durationEnvOrDefault(envCacheTTLRoster, defaultCacheTTLRoster),
			TTLSchedule: durationEnvOrDefault(envCacheTTLSched, defaultCacheTTLSched),
			TTLLive:     durationEnvOrDefault(envCacheTTLLive, defaultCacheTTLLive),
			TTLStats:    durationEnvOrDefault(envCacheTTLStats, defaultCacheTTLStats),
		},
	}
}
