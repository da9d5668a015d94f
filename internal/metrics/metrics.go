package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	cacheHits       int
	cacheMisses     int
	limiterWaits    int
	limiterTimeouts int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

// Recorder captures in-memory counters about provider calls and ingest runs
// and forwards them to OpenTelemetry instruments when configured.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*providerStats
	runs  map[string]int
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		runs:  make(map[string]int),
		otel:  otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.update(provider, func(stats *providerStats) {
		stats.calls++
		stats.lastCallLatency = duration
		if err != nil {
			stats.errors++
		}
	})
	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.update(provider, func(stats *providerStats) {
		stats.rateLimitHits++
		if retryAfter > 0 {
			stats.lastRetryAfter = retryAfter
		}
	})
	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// RecordCacheLookup tracks response cache hits and misses per provider endpoint.
func (r *Recorder) RecordCacheLookup(provider, endpoint string, hit bool) {
	if r == nil {
		return
	}
	r.update(provider, func(stats *providerStats) {
		if hit {
			stats.cacheHits++
		} else {
			stats.cacheMisses++
		}
	})
	if r.otel != nil {
		r.otel.recordCacheLookup(provider, endpoint, hit)
	}
}

// RecordLimiterWait tracks time spent waiting for a rate limiter token.
func (r *Recorder) RecordLimiterWait(provider, key string, wait time.Duration, timedOut bool) {
	if r == nil {
		return
	}
	r.update(provider, func(stats *providerStats) {
		if timedOut {
			stats.limiterTimeouts++
			return
		}
		if wait > 0 {
			stats.limiterWaits++
		}
	})
	if r.otel != nil {
		r.otel.recordLimiterWait(key, wait, timedOut)
	}
}

// RecordIngestRun tracks a finished ingest run by unit kind and terminal state.
func (r *Recorder) RecordIngestRun(kind, state string, duration time.Duration, accepted, rejected int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.runs[kind+"/"+state]++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordIngestRun(kind, state, duration, accepted, rejected)
	}
}

// IngestRuns returns how many runs of kind ended in state.
func (r *Recorder) IngestRuns(kind, state string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[kind+"/"+state]
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for a provider.
func (r *Recorder) LastRetryAfter(provider string) time.Duration {
	return r.Snapshot(provider).LastRetryAfter
}

// LastCallLatency returns the last recorded latency for a provider call.
func (r *Recorder) LastCallLatency(provider string) time.Duration {
	return r.Snapshot(provider).LastCallLatency
}

// Snapshot is a copy of the current stats for a provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	CacheHits       int
	CacheMisses     int
	LimiterWaits    int
	LimiterTimeouts int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

// Snapshot returns a copy of the current stats for the provider.
func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	stats := r.snapshot(provider)
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		CacheHits:       stats.cacheHits,
		CacheMisses:     stats.cacheMisses,
		LimiterWaits:    stats.limiterWaits,
		LimiterTimeouts: stats.limiterTimeouts,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordPollerCycle tracks scheduled ingest cycles and errors.
func (r *Recorder) RecordPollerCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordPoller(duration, err)
}

func (r *Recorder) update(provider string, fn func(*providerStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	fn(stats)
}

func (r *Recorder) snapshot(provider string) providerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats, ok := r.stats[provider]; ok && stats != nil {
		return *stats
	}
	return providerStats{}
}
