package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantColumns = `id, name, memory_limit_mb, node_host, node_port, created_at`

// Store provides database operations for tenants using the
// connection pool handed to NewStore: a thin wrapper over pgxpool with hand-written
// scan helpers rather than a generated query layer.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a tenant Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateParams holds the parameters for provisioning a tenant.
type CreateParams struct {
	Name          string
	MemoryLimitMB int
	NodeHost      string
	NodePort      int
}

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.MemoryLimitMB, &t.NodeHost, &t.NodePort, &t.CreatedAt)
	return t, err
}

// Create inserts a new tenant and returns the created row.
func (s *Store) Create(ctx context.Context, p CreateParams) (Tenant, error) {
	query := `INSERT INTO public.tenants (name, memory_limit_mb, node_host, node_port)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + tenantColumns

	row := s.pool.QueryRow(ctx, query, p.Name, p.MemoryLimitMB, p.NodeHost, p.NodePort)
	return scanTenant(row)
}

// Get returns the tenant with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, id)
	return scanTenant(row)
}

// MaxNodePort returns the highest node_port currently assigned, or
// low-1 if no tenant exists yet, so the Service can hand out the next
// port in the configured range.
func (s *Store) MaxNodePort(ctx context.Context, low int) (int, error) {
	query := `SELECT COALESCE(MAX(node_port), $1) FROM public.tenants`
	var max int
	if err := s.pool.QueryRow(ctx, query, low-1).Scan(&max); err != nil {
		return 0, fmt.Errorf("querying max node port: %w", err)
	}
	return max, nil
}

// Delete permanently removes a tenant by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM public.tenants WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
