// Package tenant manages tenant records in the control plane: a
// tenant's assigned node port is the authoritative fact the Router
// resolves through its secondary control-plane call.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one provisioned tenant and the Storage Node port it owns.
type Tenant struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	MemoryLimitMB int       `json:"memory_limit_mb"`
	NodeHost      string    `json:"node_host"`
	NodePort      int       `json:"node_port"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateRequest is the JSON body for POST /api/tenants.
type CreateRequest struct {
	Name          string `json:"name" validate:"required"`
	MemoryLimitMB int    `json:"memory_limit_mb"`
}
