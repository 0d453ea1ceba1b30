// Package nodemanager owns the pool of per-tenant Keyspaces and
// dispatches textual commands to the right one. It is the process
// that actually hosts tenant data; a "Storage Node" is this package's
// view of a single Keyspace, not a separate listening process.
package nodemanager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emberkv/emberkv/internal/keyspace"
	"github.com/emberkv/emberkv/internal/keyspace/resp"
	"github.com/emberkv/emberkv/internal/telemetry"
)

// nodeInfo is the bookkeeping the Manager keeps about a tenant
// alongside its Keyspace: the informational node port handed to
// startNode, used only for reporting (ListNodes) — the Manager itself
// never binds it.
type nodeInfo struct {
	ks   *keyspace.Keyspace
	port int
}

// Manager owns {tenant_id -> Keyspace} behind its own lock, distinct
// from any individual Keyspace's lock. Command dispatch releases the
// map lock before calling into a Keyspace; StartNode and ListNodes
// take a Keyspace's lock while holding the map lock, always in that
// order and never the reverse.
type Manager struct {
	mu    sync.RWMutex
	nodes map[string]*nodeInfo

	queue   *workQueue
	metrics *telemetry.NodeManagerMetrics
}

// New constructs an empty Manager with its bounded worker pool; the
// workers begin draining the queue only once Run is called.
// workerCount and queueCapacity default to 4 and 1024 respectively
// when zero. metrics may be nil to disable instrumentation.
func New(workerCount, queueCapacity int, metrics *telemetry.NodeManagerMetrics) *Manager {
	if workerCount <= 0 {
		workerCount = 4
	}
	if queueCapacity <= 0 {
		queueCapacity = 1024
	}
	m := &Manager{nodes: make(map[string]*nodeInfo), metrics: metrics}
	m.queue = newWorkQueue(queueCapacity, workerCount, m.dispatch)
	return m
}

// Run starts the worker pool and blocks until ctx is cancelled, then
// drains in-flight work before returning.
func (m *Manager) Run(ctx context.Context) error {
	return m.queue.run(ctx)
}

// StartNode creates (or, idempotently, no-ops on) a Keyspace for
// tenantID bound informationally to port with the given quota.
func (m *Manager) StartNode(tenantID string, port, memoryLimitMB int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[tenantID]; exists {
		return nil
	}

	ks := keyspace.New(keyspace.Config{TenantID: tenantID, MemoryLimitMB: memoryLimitMB})
	ks.Start()
	m.nodes[tenantID] = &nodeInfo{ks: ks, port: port}
	return nil
}

// ErrNotFound is returned by StopNode when the tenant has no node.
var ErrNotFound = fmt.Errorf("tenant not found")

// StopNode stops and removes tenantID's Keyspace. Returns ErrNotFound
// if absent; stopping the same tenant twice therefore succeeds once
// and fails not-found the second time.
func (m *Manager) StopNode(tenantID string) error {
	m.mu.Lock()
	node, exists := m.nodes[tenantID]
	if !exists {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.nodes, tenantID)
	m.mu.Unlock()

	node.ks.Stop()
	return nil
}

// StopAllNodes stops and removes every Keyspace, for use on shutdown.
func (m *Manager) StopAllNodes() {
	m.mu.Lock()
	nodes := m.nodes
	m.nodes = make(map[string]*nodeInfo)
	m.mu.Unlock()

	for _, node := range nodes {
		node.ks.Stop()
	}
}

// lookup releases the map lock before returning: the caller holds only
// the Keyspace's own lock (via Execute) afterward.
func (m *Manager) lookup(tenantID string) (*keyspace.Keyspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[tenantID]
	if !ok {
		return nil, false
	}
	return node.ks, true
}

// ExecuteCommand enqueues tenantID/commandLine onto the bounded
// request queue and blocks for the reply. Returns a "server busy"
// RESP error immediately, without blocking, when the queue is
// saturated.
func (m *Manager) ExecuteCommand(tenantID, commandLine string) []byte {
	reply := make(chan []byte, 1)
	job := commandJob{tenantID: tenantID, line: commandLine, reply: reply}

	if !m.queue.submit(job) {
		if m.metrics != nil {
			m.metrics.QueueRejected.Inc()
		}
		return resp.Err("ERR server busy")
	}
	if m.metrics != nil {
		m.metrics.QueueDepth.Set(float64(m.queue.depth()))
	}
	return <-reply
}

// dispatch is called by queue workers for each job: it parses the
// command line and executes it against the tenant's Keyspace. Any
// panic from command execution is recovered here — it becomes an
// internal error reply instead of taking down a worker goroutine.
func (m *Manager) dispatch(job commandJob) (reply []byte) {
	defer func() {
		if r := recover(); r != nil {
			reply = resp.Err(fmt.Sprintf("ERR internal error: %v", r))
		}
	}()

	ks, found := m.lookup(job.tenantID)
	if !found {
		return resp.Err("ERR tenant not found")
	}

	name, args, ok := parseCommandLine(job.line)
	if !ok {
		return resp.Err("ERR invalid syntax")
	}
	if m.metrics != nil {
		m.metrics.CommandsTotal.WithLabelValues(strings.ToUpper(name), job.tenantID).Inc()
	}
	return ks.Execute(name, args)
}

// parseCommandLine splits a single textual command line on ASCII
// whitespace into a command name and its arguments. RESP array
// framing is not expected at this layer.
func parseCommandLine(line string) (name string, args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

// NodeStatus is one entry of the ListNodes snapshot.
type NodeStatus struct {
	TenantID   string
	Port       int
	Running    bool
	MemoryUsed int64
	KeyCount   int
	CreatedAt  time.Time
}

// ListNodes snapshots every currently-known tenant.
func (m *Manager) ListNodes() []NodeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]NodeStatus, 0, len(m.nodes))
	for tenantID, node := range m.nodes {
		snap := node.ks.Snapshot()
		out = append(out, NodeStatus{
			TenantID:   tenantID,
			Port:       node.port,
			Running:    snap.Running,
			MemoryUsed: snap.UsedMemory,
			KeyCount:   snap.KeyCount,
			CreatedAt:  snap.CreatedAt,
		})
	}
	return out
}
