package server

import (
	"log/slog"

	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/providers/balldontlie"
	"nba-ingest-service/internal/providers/fixture"
)

const fixtureMaxPages = 3

// selectSource picks the transport for cfg.Provider and returns a source
// whose client is built by newClient over it.
func selectSource(cfg config.Config, logger *slog.Logger, newClient func(providers.Transport) (providers.Client, error)) (providers.Source, error) {
	switch cfg.Provider {
	case "fixture", "":
		client, err := newClient(fixture.New())
		if err != nil {
			return providers.Source{}, err
		}
		return providers.Source{
			Client:     client,
			Normalizer: balldontlie.NewNormalizer("UTC"),
			MaxPages:   fixtureMaxPages,
		}, nil
	case "balldontlie":
		bdl := balldontlie.Config{
			BaseURL:  cfg.Balldontlie.BaseURL,
			APIKey:   cfg.Balldontlie.APIKey,
			Timezone: cfg.Balldontlie.Timezone,
			MaxPages: cfg.Balldontlie.MaxPages,
		}
		client, err := newClient(balldontlie.NewTransport(bdl))
		if err != nil {
			return providers.Source{}, err
		}
		return balldontlie.NewSource(bdl, client), nil
	default:
		logging.Warn(logger, "unknown provider, falling back to fixture", slog.String(logging.FieldProvider, cfg.Provider))
		cfg.Provider = "fixture"
		return selectSource(cfg, logger, newClient)
	}
}
