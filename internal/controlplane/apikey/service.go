package apikey

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emberkv/emberkv/internal/telemetry"
)

// maxKeysPerTenantPerDay bounds how many API keys a tenant can issue
// in a single UTC day, guarding against a compromised tenant account
// minting keys in bulk.
const maxKeysPerTenantPerDay = 20

// cache is the subset of controlplane/cache.Cache the Service needs,
// kept as a local interface so tests can substitute a fake without
// standing up Redis.
type cache interface {
	Lookup(ctx context.Context, keyHash string) (string, bool)
	Store(ctx context.Context, keyHash, tenantID string)
	Invalidate(ctx context.Context, keyHash string)
}

// Service issues and verifies API keys, read-through caching
// successful verifications.
type Service struct {
	store   *Store
	cache   cache
	metrics *telemetry.ControlPlaneMetrics
}

// NewService builds a Service backed by store, optionally
// accelerated by a read-through cache. cache may be nil, in which
// case every verification hits Postgres. metrics may be nil to
// disable instrumentation.
func NewService(store *Store, c cache, metrics *telemetry.ControlPlaneMetrics) *Service {
	return &Service{store: store, cache: c, metrics: metrics}
}

// Create provisions a new API key for tenantID, first checking the
// tenant's daily issuance rate limit.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID) (CreateResponse, error) {
	count, err := s.store.IncrementIssueCounter(ctx, tenantID, dayBucket())
	if err != nil {
		return CreateResponse{}, err
	}
	if count > maxKeysPerTenantPerDay {
		return CreateResponse{}, fmt.Errorf("tenant %s exceeded daily API key issuance limit of %d", tenantID, maxKeysPerTenantPerDay)
	}

	raw, prefix, err := generateRawKey()
	if err != nil {
		return CreateResponse{}, err
	}

	rec, err := s.store.Create(ctx, CreateParams{
		TenantID:  tenantID,
		KeyHash:   hashAPIKey(raw),
		KeyPrefix: prefix,
	})
	if err != nil {
		return CreateResponse{}, err
	}

	return CreateResponse{APIKey: rec, RawKey: raw}, nil
}

// Verify resolves a raw API key to its owning tenant ID, checking the
// read-through cache before falling back to Postgres.
func (s *Service) Verify(ctx context.Context, rawKey string) (string, bool) {
	hash := hashAPIKey(rawKey)

	if s.cache != nil {
		if tenantID, ok := s.cache.Lookup(ctx, hash); ok {
			s.recordVerify("cache_hit")
			return tenantID, true
		}
	}

	rec, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		s.recordVerify("rejected")
		return "", false
	}

	tenantID := rec.TenantID.String()
	if s.cache != nil {
		s.cache.Store(ctx, hash, tenantID)
	}
	s.recordVerify("store_hit")
	return tenantID, true
}

func (s *Service) recordVerify(outcome string) {
	if s.metrics != nil {
		s.metrics.APIKeyVerifies.WithLabelValues(outcome).Inc()
	}
}

// Delete removes an API key by ID. The cached verification is
// invalidated only when rawKey is non-empty; otherwise (as from the
// HTTP delete handler, which passes "") it stays cached until its TTL
// expires.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, rawKey string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil && rawKey != "" {
		s.cache.Invalidate(ctx, hashAPIKey(rawKey))
	}
	return nil
}
