package tenant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/emberkv/emberkv/internal/telemetry"
)

const defaultMemoryLimitMB = 40

// Service implements tenant provisioning on top of a Store, assigning
// each new tenant the next free port in a configured range. Port
// assignment is serialized by an in-process mutex rather than a
// database-level allocation table or advisory lock — correct for a
// single control-plane instance, the deployment shape this service
// targets.
type Service struct {
	store       *Store
	backendHost string
	portLow     int
	portHigh    int
	metrics     *telemetry.ControlPlaneMetrics

	mu       sync.Mutex
	nextPort int
}

// NewService builds a Service that assigns node ports in
// [portLow, portHigh] on backendHost. metrics may be nil to disable
// instrumentation.
func NewService(store *Store, backendHost string, portLow, portHigh int, metrics *telemetry.ControlPlaneMetrics) (*Service, error) {
	ctx := context.Background()
	max, err := store.MaxNodePort(ctx, portLow)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:       store,
		backendHost: backendHost,
		portLow:     portLow,
		portHigh:    portHigh,
		metrics:     metrics,
		nextPort:    max + 1,
	}, nil
}

// Create provisions a new tenant, assigning it the next available
// node port.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Tenant, error) {
	memLimit := req.MemoryLimitMB
	if memLimit <= 0 {
		memLimit = defaultMemoryLimitMB
	}

	port, err := s.allocatePort()
	if err != nil {
		return Tenant{}, err
	}

	t, err := s.store.Create(ctx, CreateParams{
		Name:          req.Name,
		MemoryLimitMB: memLimit,
		NodeHost:      s.backendHost,
		NodePort:      port,
	})
	if err == nil && s.metrics != nil {
		s.metrics.TenantsCreated.Inc()
	}
	return t, err
}

func (s *Service) allocatePort() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextPort > s.portHigh {
		return 0, fmt.Errorf("node port range [%d, %d] exhausted", s.portLow, s.portHigh)
	}
	port := s.nextPort
	s.nextPort++
	return port, nil
}

// Get returns a tenant by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a tenant by ID.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
