package balldontlie

import (
	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/providers"
)

// Catalog lists the balldontlie endpoints and the tier each one needs.
func Catalog() providers.Catalog {
	return providers.NewCatalog(
		providers.Endpoint{Name: providers.EndpointTeams, Path: "/teams", MinTier: providers.TierFree, TTLClass: config.TTLRoster},
		providers.Endpoint{Name: providers.EndpointGames, Path: "/games", MinTier: providers.TierFree, TTLClass: config.TTLSchedule, Paginated: true},
		providers.Endpoint{Name: providers.EndpointTeamSeasonAverages, Path: "/team_season_averages/general", MinTier: providers.TierGOAT, TTLClass: config.TTLStats, Paginated: true},
	)
}
