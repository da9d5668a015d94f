package testutil

import (
	"nba-ingest-service/internal/app/games"
	"nba-ingest-service/internal/app/manifests"
	"nba-ingest-service/internal/app/stats"
	"nba-ingest-service/internal/app/teams"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/store"
)

// QueryServices are the read services built over one entity store.
type QueryServices struct {
	Games     *games.Service
	Teams     *teams.Service
	Stats     *stats.Service
	Manifests *manifests.Service
}

// NewQueryServices builds every query service. A nil manifest store gets an
// empty memory store.
func NewQueryServices(entities store.Entities, ms manifest.Store) QueryServices {
	if ms == nil {
		ms = manifest.NewMemoryStore()
	}
	return QueryServices{
		Games:     games.NewService(entities),
		Teams:     teams.NewService(entities),
		Stats:     stats.NewService(entities),
		Manifests: manifests.NewService(ms),
	}
}
