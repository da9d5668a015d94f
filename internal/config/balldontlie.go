package config

const (
	envBdlBaseURL  = "BALLDONTLIE_BASE_URL"
	envBdlAPIKey   = "BALLDONTLIE_API_KEY"
	envBdlTimezone = "BALLDONTLIE_TIMEZONE"
	envBdlMaxPages = "BALLDONTLIE_MAX_PAGES"

	defaultBdlBaseURL  = "https://api.balldontlie.io/v1"
	defaultBdlTimezone = "America/New_York"
	defaultBdlMaxPages = 10
)

// BalldontlieConfig controls how we talk to the balldontlie API.
type BalldontlieConfig struct {
	BaseURL  string
	APIKey   string
	Timezone string
	MaxPages int
}

func loadBalldontlie() BalldontlieConfig {
	return BalldontlieConfig{
		BaseURL:  envOrDefault(envBdlBaseURL, defaultBdlBaseURL),
		APIKey:   envOrDefault(envBdlAPIKey, ""),
		Timezone: envOrDefault(envBdlTimezone, defaultBdlTimezone),
		MaxPages: intEnvOrDefault(envBdlMaxPages, defaultBdlMaxPages),
	}
}
