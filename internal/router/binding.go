// Package router terminates client connections, authenticates them
// against a cached API-key -> tenant binding, and proxies RESP bytes
// to the right Storage Node.
package router

// Binding is what an authenticated API key resolves to: the owning
// tenant plus its backend host and node port. Commands are forwarded
// to the Node Manager by tenant ID; Host and Port are not dialed.
type Binding struct {
	TenantID string
	Host     string
	Port     int
}
