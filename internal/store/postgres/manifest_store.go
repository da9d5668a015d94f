package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"nba-ingest-service/internal/manifest"
)

// manifestLockKey serializes appends across processes sharing a database.
const manifestLockKey int64 = 0x6d616e6966657374

// ManifestStore implements manifest.Store using PostgreSQL. Rows are
// protected against UPDATE and DELETE by a trigger.
type ManifestStore struct {
	pool *Pool
}

// NewManifestStore creates a new ManifestStore.
func NewManifestStore(pool *Pool) *ManifestStore {
	return &ManifestStore{pool: pool}
}

// Compile-time interface check.
var _ manifest.Store = (*ManifestStore)(nil)

const manifestColumns = `
	SELECT seq, hash, unit_id, unit_kind, provider, created_at, counts, errors, warnings,
		transaction_id, entity_ids, batch_rejected, partial, prev_record_hash, record_hash
	FROM manifests`

func (s *ManifestStore) Append(ctx context.Context, m manifest.Manifest) (manifest.Manifest, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("begin manifest append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, manifestLockKey); err != nil {
		return manifest.Manifest{}, fmt.Errorf("lock manifest chain: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM manifests WHERE hash = $1)`, m.Hash).Scan(&exists); err != nil {
		return manifest.Manifest{}, fmt.Errorf("check manifest hash: %w", err)
	}
	if exists {
		return manifest.Manifest{}, manifest.ErrDuplicate
	}

	var head *manifest.Manifest
	latest, err := scanManifest(tx.QueryRow(ctx, manifestColumns+` ORDER BY seq DESC LIMIT 1`))
	switch {
	case err == nil:
		head = &latest
	case !isNotFoundError(err):
		return manifest.Manifest{}, fmt.Errorf("read manifest head: %w", err)
	}

	sealed := manifest.Seal(m, head)
	counts, err := json.Marshal(sealed.Counts)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("marshal counts: %w", err)
	}

	query := `
		INSERT INTO manifests (
			seq, hash, unit_id, unit_kind, provider, created_at, counts, errors, warnings,
			transaction_id, entity_ids, batch_rejected, partial, prev_record_hash, record_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(ctx, query,
		sealed.Seq, sealed.Hash, sealed.UnitID, sealed.UnitKind, sealed.Provider, sealed.CreatedAt,
		counts, sealed.Errors, sealed.Warnings, sealed.TransactionID, sealed.EntityIDs,
		sealed.BatchRejected, sealed.Partial, sealed.PrevRecordHash, sealed.RecordHash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return manifest.Manifest{}, manifest.ErrDuplicate
		}
		return manifest.Manifest{}, fmt.Errorf("insert manifest: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return manifest.Manifest{}, fmt.Errorf("commit manifest append: %w", err)
	}
	return sealed, nil
}

func (s *ManifestStore) Get(ctx context.Context, hash string) (manifest.Manifest, error) {
	m, err := scanManifest(s.pool.QueryRow(ctx, manifestColumns+` WHERE hash = $1`, hash))
	if err != nil {
		if isNotFoundError(err) {
			return manifest.Manifest{}, manifest.ErrNotFound
		}
		return manifest.Manifest{}, fmt.Errorf("get manifest: %w", err)
	}
	return m, nil
}

func (s *ManifestStore) Has(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM manifests WHERE hash = $1)`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check manifest: %w", err)
	}
	return exists, nil
}

func (s *ManifestStore) ListByUnit(ctx context.Context, unitID string) ([]manifest.Manifest, error) {
	return s.list(ctx, manifestColumns+` WHERE unit_id = $1 ORDER BY seq`, unitID)
}

func (s *ManifestStore) ListByDate(ctx context.Context, date string) ([]manifest.Manifest, error) {
	return s.list(ctx, manifestColumns+` WHERE (created_at AT TIME ZONE 'UTC')::date = $1::date ORDER BY seq`, date)
}

func (s *ManifestStore) Latest(ctx context.Context) (manifest.Manifest, error) {
	m, err := scanManifest(s.pool.QueryRow(ctx, manifestColumns+` ORDER BY seq DESC LIMIT 1`))
	if err != nil {
		if isNotFoundError(err) {
			return manifest.Manifest{}, manifest.ErrNotFound
		}
		return manifest.Manifest{}, fmt.Errorf("latest manifest: %w", err)
	}
	return m, nil
}

func (s *ManifestStore) All(ctx context.Context) ([]manifest.Manifest, error) {
	return s.list(ctx, manifestColumns+` ORDER BY seq`)
}

func (s *ManifestStore) list(ctx context.Context, query string, args ...any) ([]manifest.Manifest, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	out := make([]manifest.Manifest, 0)
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanManifest(row pgx.Row) (manifest.Manifest, error) {
	var (
		m      manifest.Manifest
		counts []byte
	)
	err := row.Scan(
		&m.Seq, &m.Hash, &m.UnitID, &m.UnitKind, &m.Provider, &m.CreatedAt, &counts,
		&m.Errors, &m.Warnings, &m.TransactionID, &m.EntityIDs,
		&m.BatchRejected, &m.Partial, &m.PrevRecordHash, &m.RecordHash,
	)
	if err != nil {
		return manifest.Manifest{}, err
	}
	if err := json.Unmarshal(counts, &m.Counts); err != nil {
		return manifest.Manifest{}, fmt.Errorf("decode manifest counts: %w", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}
