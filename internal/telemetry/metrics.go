package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NodeManagerMetrics holds the Node Manager's Prometheus collectors.
type NodeManagerMetrics struct {
	Registry       *prometheus.Registry
	CommandsTotal  *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
	QueueRejected  prometheus.Counter
}

// NewNodeManagerMetrics builds and registers the Node Manager's
// collectors on a fresh registry.
func NewNodeManagerMetrics() *NodeManagerMetrics {
	reg := prometheus.NewRegistry()
	m := &NodeManagerMetrics{
		Registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "nodemanager",
			Name:      "commands_total",
			Help:      "Commands dispatched to a Keyspace, by command and tenant.",
		}, []string{"command", "tenant"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emberkv",
			Subsystem: "nodemanager",
			Name:      "queue_depth",
			Help:      "Current depth of the bounded request queue.",
		}),
		QueueRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "nodemanager",
			Name:      "queue_rejected_total",
			Help:      "Requests rejected with server busy because the queue was saturated.",
		}),
	}
	reg.MustRegister(m.CommandsTotal, m.QueueDepth, m.QueueRejected)
	return m
}

// RouterMetrics holds the Router's Prometheus collectors.
type RouterMetrics struct {
	Registry          *prometheus.Registry
	AuthCacheHits     prometheus.Counter
	AuthCacheMisses   prometheus.Counter
	ProxyBytes        *prometheus.CounterVec
	VerifyDuration    prometheus.Histogram
}

// NewRouterMetrics builds and registers the Router's collectors on a
// fresh registry.
func NewRouterMetrics() *RouterMetrics {
	reg := prometheus.NewRegistry()
	m := &RouterMetrics{
		Registry: reg,
		AuthCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "router",
			Name:      "auth_cache_hits_total",
			Help:      "API-key lookups served from the in-memory cache.",
		}),
		AuthCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "router",
			Name:      "auth_cache_misses_total",
			Help:      "API-key lookups that required an external verify call.",
		}),
		ProxyBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "router",
			Name:      "proxy_bytes_total",
			Help:      "Bytes proxied between client and node, by direction.",
		}, []string{"direction"}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "emberkv",
			Subsystem: "router",
			Name:      "verify_duration_seconds",
			Help:      "Latency of the external API-key verify call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.AuthCacheHits, m.AuthCacheMisses, m.ProxyBytes, m.VerifyDuration)
	return m
}

// ControlPlaneMetrics holds the control plane's Prometheus collectors.
type ControlPlaneMetrics struct {
	Registry        *prometheus.Registry
	APIKeyVerifies  *prometheus.CounterVec
	TenantsCreated  prometheus.Counter
}

// NewControlPlaneMetrics builds and registers the control plane's
// collectors on a fresh registry.
func NewControlPlaneMetrics() *ControlPlaneMetrics {
	reg := prometheus.NewRegistry()
	m := &ControlPlaneMetrics{
		Registry: reg,
		APIKeyVerifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "controlplane",
			Name:      "apikey_verifies_total",
			Help:      "API-key verification attempts, by outcome.",
		}, []string{"outcome"}),
		TenantsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emberkv",
			Subsystem: "controlplane",
			Name:      "tenants_created_total",
			Help:      "Tenants provisioned through the control plane.",
		}),
	}
	reg.MustRegister(m.APIKeyVerifies, m.TenantsCreated)
	return m
}

// Handler returns an http.Handler serving reg in the Prometheus
// exposition format, for mounting at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
