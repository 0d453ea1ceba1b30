package apikey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const apiKeyColumns = `id, tenant_id, key_hash, key_prefix, created_at`

// Store provides database operations for API keys using the
// connection pool handed to NewStore: a thin wrapper over pgxpool with hand-written
// scan helpers rather than a generated query layer.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an APIKey Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateParams holds the parameters for creating an API key.
type CreateParams struct {
	TenantID uuid.UUID
	KeyHash  string
	KeyPrefix string
}

func scanAPIKey(row pgx.Row) (APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.TenantID, &k.KeyHash, &k.KeyPrefix, &k.CreatedAt)
	return k, err
}

// Create inserts a new API key and returns the created row.
func (s *Store) Create(ctx context.Context, p CreateParams) (APIKey, error) {
	query := `INSERT INTO public.api_keys (tenant_id, key_hash, key_prefix)
	VALUES ($1, $2, $3)
	RETURNING ` + apiKeyColumns

	row := s.pool.QueryRow(ctx, query, p.TenantID, p.KeyHash, p.KeyPrefix)
	return scanAPIKey(row)
}

// GetByHash returns the API key record matching keyHash.
func (s *Store) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM public.api_keys WHERE key_hash = $1`
	row := s.pool.QueryRow(ctx, query, keyHash)
	return scanAPIKey(row)
}

// IncrementIssueCounter bumps the per-tenant, per-bucket key-issuance
// counter and returns the new count. bucket is typically a UTC date
// string (e.g. "2026-07-31"), giving a fixed per-day window without a
// background reset job: old buckets are just never read again.
func (s *Store) IncrementIssueCounter(ctx context.Context, tenantID uuid.UUID, bucket string) (int, error) {
	query := `INSERT INTO public.api_key_issue_counters (tenant_id, bucket, count)
	VALUES ($1, $2, 1)
	ON CONFLICT (tenant_id, bucket) DO UPDATE SET count = public.api_key_issue_counters.count + 1
	RETURNING count`

	var count int
	row := s.pool.QueryRow(ctx, query, tenantID, bucket)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("incrementing issue counter: %w", err)
	}
	return count, nil
}

// Delete permanently removes an API key by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM public.api_keys WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
