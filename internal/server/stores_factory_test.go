package server

import (
	"context"
	"errors"
	"testing"

	"nba-ingest-service/internal/cache"
	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/manifest"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/store/postgres"
)

func TestBuildStoresDefaultsToMemory(t *testing.T) {
	sc, err := buildStores(context.Background(), config.Config{}, nil)
	if err != nil {
		t.Fatalf("build stores: %v", err)
	}
	if _, ok := sc.entities.(*store.MemoryStore); !ok {
		t.Fatalf("expected memory entities, got %T", sc.entities)
	}
	if _, ok := sc.manifests.(*manifest.MemoryStore); !ok {
		t.Fatalf("expected memory manifests, got %T", sc.manifests)
	}
	if _, ok := sc.responses.(*cache.MemoryStore); !ok {
		t.Fatalf("expected memory cache, got %T", sc.responses)
	}
	if sc.pool != nil {
		t.Fatalf("expected no pool")
	}
}

func TestBuildStoresFSManifests(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Pipeline: config.PipelineConfig{ManifestBackend: "fs", ManifestDir: dir}}
	sc, err := buildStores(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("build stores: %v", err)
	}
	fs, ok := sc.manifests.(*manifest.FSStore)
	if !ok || fs.BasePath() != dir {
		t.Fatalf("expected fs manifest store at %s, got %T", dir, sc.manifests)
	}
}

func TestBuildStoresRejectsUnknownBackends(t *testing.T) {
	if _, err := buildStores(context.Background(), config.Config{Cache: config.CacheConfig{Backend: "redis"}}, nil); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
	if _, err := buildStores(context.Background(), config.Config{Pipeline: config.PipelineConfig{ManifestBackend: "s3"}}, nil); err == nil {
		t.Fatal("expected error for unknown manifest backend")
	}
}

func TestBuildStoresPostgresRequiresURL(t *testing.T) {
	cfg := config.Config{Pipeline: config.PipelineConfig{ManifestBackend: "postgres"}}
	if _, err := buildStores(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestBuildStoresWrapsOpenFailure(t *testing.T) {
	orig := openPostgres
	defer func() { openPostgres = orig }()
	boom := errors.New("connection refused")
	openPostgres = func(ctx context.Context, dsn string) (*postgres.Pool, error) {
		return nil, boom
	}

	_, err := buildStores(context.Background(), config.Config{DatabaseURL: "postgres://localhost/nba"}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
}

func TestBuildStackFailsOnBadBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "redis"
	if _, err := BuildStack(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected stack build to fail")
	}
}

func TestStackSweepCache(t *testing.T) {
	stack, err := BuildStack(context.Background(), testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("build stack: %v", err)
	}
	defer stack.Close()
	n, err := stack.SweepCache(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected empty sweep, got %d %v", n, err)
	}
}
