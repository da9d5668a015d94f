package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// providersFile is the optional YAML document named by PROVIDERS_FILE.
//
//	provider: balldontlie
//	tier: all-star
//	providers:
//	  balldontlie:
//	    base_url: https://api.balldontlie.io/v1
//	    api_key: ${BALLDONTLIE_API_KEY}
//	    quotas:
//	      all-star: {requests: 60, window: 1m, burst: 2}
type providersFile struct {
	Provider  string                  `yaml:"provider"`
	Tier      string                  `yaml:"tier"`
	Providers map[string]providerSpec `yaml:"providers"`
}

type providerSpec struct {
	BaseURL  string               `yaml:"base_url"`
	APIKey   string               `yaml:"api_key"`
	Timezone string               `yaml:"timezone"`
	MaxPages int                  `yaml:"max_pages"`
	Quotas   map[string]quotaSpec `yaml:"quotas"`
}

type quotaSpec struct {
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
	Burst    int    `yaml:"burst"`
}

func readProvidersFile(path string) (providersFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return providersFile{}, fmt.Errorf("config: read providers file: %w", err)
	}
	var file providersFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &file); err != nil {
		return providersFile{}, fmt.Errorf("config: parse providers file: %w", err)
	}
	return file, nil
}

// apply overlays file values onto cfg. Environment variables set explicitly
// for provider and tier still win.
func (f providersFile) apply(cfg *Config) error {
	if f.Provider != "" && os.Getenv(envProvider) == "" {
		cfg.Provider = strings.ToLower(f.Provider)
	}
	if f.Tier != "" && os.Getenv(envTier) == "" {
		cfg.Tier = strings.ToLower(f.Tier)
	}

	entry, ok := f.Providers[cfg.Provider]
	if !ok {
		return nil
	}
	if cfg.Provider == "balldontlie" {
		if entry.BaseURL != "" {
			cfg.Balldontlie.BaseURL = entry.BaseURL
		}
		if entry.APIKey != "" {
			cfg.Balldontlie.APIKey = entry.APIKey
		}
		if entry.Timezone != "" {
			cfg.Balldontlie.Timezone = entry.Timezone
		}
		if entry.MaxPages > 0 {
			cfg.Balldontlie.MaxPages = entry.MaxPages
		}
	}
	for tier, q := range entry.Quotas {
		quota, err := q.toQuota()
		if err != nil {
			return fmt.Errorf("config: provider %s tier %s: %w", cfg.Provider, tier, err)
		}
		cfg.Quotas[strings.ToLower(tier)] = quota
	}
	return nil
}

func (q quotaSpec) toQuota() (QuotaConfig, error) {
	if q.Requests <= 0 {
		return QuotaConfig{}, fmt.Errorf("requests must be positive, got %d", q.Requests)
	}
	window := time.Minute
	if q.Window != "" {
		parsed, err := time.ParseDuration(q.Window)
		if err != nil || parsed <= 0 {
			return QuotaConfig{}, fmt.Errorf("invalid window %q", q.Window)
		}
		window = parsed
	}
	burst := q.Burst
	if burst <= 0 {
		burst = 1
	}
	return QuotaConfig{Requests: q.Requests, Window: window, Burst: burst}, nil
}
