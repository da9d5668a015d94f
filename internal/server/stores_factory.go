package server

import (
	"context"
	"fmt"
	"log/slog"

	"nba-ingest-service/internal/cache"
	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/logging"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/store/postgres"
)

const (
	backendMemory   = "memory"
	backendFS       = "fs"
	backendPostgres = "postgres"
)

var openPostgres = postgres.Open

type storeComponents struct {
	entities  store.Entities
	manifests manifest.Store
	responses cache.Store
	pool      *postgres.Pool
}

// buildStores selects the entity, manifest and cache backends. When
// DATABASE_URL is set entities live in Postgres; the cache and manifest
// backends follow their own settings and may also choose postgres.
func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (storeComponents, error) {
	var sc storeComponents
	needPool := cfg.DatabaseURL != "" ||
		cfg.Cache.Backend == backendPostgres ||
		cfg.Pipeline.ManifestBackend == backendPostgres
	if needPool {
		if cfg.DatabaseURL == "" {
			return sc, fmt.Errorf("server: postgres backend requires DATABASE_URL")
		}
		pool, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return sc, fmt.Errorf("server: open postgres: %w", err)
		}
		sc.pool = pool
	}

	if sc.pool != nil {
		sc.entities = postgres.NewEntityStore(sc.pool)
	} else {
		sc.entities = store.NewMemoryStore()
	}

	switch cfg.Cache.Backend {
	case backendPostgres:
		sc.responses = postgres.NewCacheStore(sc.pool)
	case backendMemory, "":
		sc.responses = cache.NewMemoryStore()
	default:
		sc.close()
		return storeComponents{}, fmt.Errorf("server: unknown cache backend %q", cfg.Cache.Backend)
	}

	switch cfg.Pipeline.ManifestBackend {
	case backendPostgres:
		sc.manifests = postgres.NewManifestStore(sc.pool)
	case backendFS:
		sc.manifests = manifest.NewFSStore(cfg.Pipeline.ManifestDir)
	case backendMemory, "":
		sc.manifests = manifest.NewMemoryStore()
	default:
		sc.close()
		return storeComponents{}, fmt.Errorf("server: unknown manifest backend %q", cfg.Pipeline.ManifestBackend)
	}

	logging.Info(logger, "storage configured",
		slog.Bool("postgres", sc.pool != nil),
		slog.String("cache_backend", orDefault(cfg.Cache.Backend, backendMemory)),
		slog.String("manifest_backend", orDefault(cfg.Pipeline.ManifestBackend, backendMemory)),
	)
	return sc, nil
}

func (sc storeComponents) close() {
	if sc.pool != nil {
		sc.pool.Close()
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
