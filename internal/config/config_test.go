package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(envDotEnvFile, filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Provider != defaultProvider {
		t.Fatalf("expected default provider %s, got %s", defaultProvider, cfg.Provider)
	}
	if cfg.Tier != defaultTier {
		t.Fatalf("expected default tier %s, got %s", defaultTier, cfg.Tier)
	}
	if cfg.Balldontlie.BaseURL != defaultBdlBaseURL {
		t.Fatalf("expected default balldontlie base url %s, got %s", defaultBdlBaseURL, cfg.Balldontlie.BaseURL)
	}
	if q := cfg.Quota(); q.Requests != 5 || q.Window != time.Minute || q.Burst != 1 {
		t.Fatalf("unexpected free tier quota %+v", q)
	}
	if cfg.Cache.TTLs[TTLLive] != defaultCacheTTLLive {
		t.Fatalf("expected live ttl %s, got %s", defaultCacheTTLLive, cfg.Cache.TTLs[TTLLive])
	}
	if cfg.Pipeline.TeamCount != 30 {
		t.Fatalf("expected 30 teams, got %d", cfg.Pipeline.TeamCount)
	}
	if cfg.Retry.MaxAttempts != defaultRetryAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultRetryAttempts, cfg.Retry.MaxAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(envPort, "5000")
	t.Setenv(envProvider, "BallDontLie")
	t.Setenv(envTier, "all-star")
	t.Setenv(envRateRPM, "50")
	t.Setenv(envRateBurst, "3")
	t.Setenv(envBdlAPIKey, "secret-key")
	t.Setenv(envPollInterval, "45s")
	t.Setenv(envCacheTTLSched, "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Port != "5000" {
		t.Fatalf("expected port 5000, got %s", cfg.Port)
	}
	if cfg.Provider != "balldontlie" {
		t.Fatalf("expected provider lower-cased, got %s", cfg.Provider)
	}
	if q := cfg.Quota(); q.Requests != 50 || q.Burst != 3 {
		t.Fatalf("expected overridden quota, got %+v", q)
	}
	if cfg.Quotas["free"].Requests != 5 {
		t.Fatalf("expected other tiers untouched, got %+v", cfg.Quotas["free"])
	}
	if cfg.Balldontlie.APIKey != "secret-key" {
		t.Fatalf("expected balldontlie api key override, got %s", cfg.Balldontlie.APIKey)
	}
	if cfg.Poller.Interval != 45*time.Second {
		t.Fatalf("expected poll interval 45s, got %s", cfg.Poller.Interval)
	}
	if cfg.Cache.TTLs[TTLSchedule] != 2*time.Hour {
		t.Fatalf("expected schedule ttl 2h, got %s", cfg.Cache.TTLs[TTLSchedule])
	}
}

func TestLoadUnknownTierFails(t *testing.T) {
	isolate(t)
	t.Setenv(envTier, "benchwarmer")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for tier without quota")
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv(envPollInterval, "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Poller.Interval != defaultPollInterval {
		t.Fatalf("expected default poll interval on invalid value, got %s", cfg.Poller.Interval)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("ADMIN_TOKEN=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv(envDotEnvFile, path)
	t.Setenv(envAdminToken, "")
	os.Unsetenv(envAdminToken)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AdminToken != "from-dotenv" {
		t.Fatalf("expected admin token from dotenv, got %q", cfg.AdminToken)
	}
}

func TestLoadProvidersFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	doc := `
provider: balldontlie
tier: goat
providers:
  balldontlie:
    base_url: http://bdl.local/v1
    api_key: ${TEST_BDL_KEY}
    max_pages: 3
    quotas:
      goat: {requests: 100, window: 30s, burst: 4}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	t.Setenv(envProvidersFile, path)
	t.Setenv("TEST_BDL_KEY", "expanded")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Provider != "balldontlie" || cfg.Tier != "goat" {
		t.Fatalf("expected provider/tier from file, got %s/%s", cfg.Provider, cfg.Tier)
	}
	if cfg.Balldontlie.BaseURL != "http://bdl.local/v1" || cfg.Balldontlie.APIKey != "expanded" || cfg.Balldontlie.MaxPages != 3 {
		t.Fatalf("unexpected balldontlie config %+v", cfg.Balldontlie)
	}
	if q := cfg.Quota(); q.Requests != 100 || q.Window != 30*time.Second || q.Burst != 4 {
		t.Fatalf("unexpected goat quota %+v", q)
	}
}

func TestLoadProvidersFileRejectsBadQuota(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "providers.yaml")
	doc := "providers:\n  fixture:\n    quotas:\n      free: {requests: 0}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	t.Setenv(envProvidersFile, path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive quota")
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	isolate(t)
	t.Setenv(envCORSOrigins, "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}
