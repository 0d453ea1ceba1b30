package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/emberkv/emberkv/internal/telemetry"
)

// Router ties together authentication, caching, and forwarding for
// both handshake modes. It owns every mutable collaborator a
// connection handler needs: the auth cache, the external verifier,
// a keep-alive HTTP client to the Node Manager, and the bounded
// forward-worker pool.
type Router struct {
	logger         *slog.Logger
	metrics        *telemetry.RouterMetrics
	cache          *AuthCache
	verifier       *Verifier
	httpClient     *http.Client
	nodeManagerURL string
	forwardPool    *ForwardPool
}

// Options configures a Router.
type Options struct {
	CacheSize       int
	CacheTTL        time.Duration
	NegativeTTL     time.Duration
	PoolSizePerPort int
	ForwardWorkers  int
	ForwardQueueCap int
}

// New builds a Router. controlPlaneURL and backendHost are passed
// straight through to the Verifier; nodeManagerURL is where
// authenticated commands are actually forwarded.
func New(logger *slog.Logger, metrics *telemetry.RouterMetrics, controlPlaneURL, backendHost, nodeManagerURL string, opts Options) *Router {
	poolSize := opts.PoolSizePerPort
	if poolSize <= 0 {
		poolSize = defaultPoolSizePerPort
	}
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: poolSize,
			IdleConnTimeout:     2 * time.Minute,
		},
	}

	return &Router{
		logger:         logger,
		metrics:        metrics,
		cache:          NewAuthCache(opts.CacheSize, opts.CacheTTL, opts.NegativeTTL),
		verifier:       NewVerifier(controlPlaneURL, backendHost),
		httpClient:     httpClient,
		nodeManagerURL: nodeManagerURL,
		forwardPool:    NewForwardPool(opts.ForwardWorkers, opts.ForwardQueueCap, httpClient, nodeManagerURL, metrics),
	}
}

// defaultPoolSizePerPort bounds the Node Manager HTTP client's
// keep-alive connection pool when the caller doesn't configure one.
const defaultPoolSizePerPort = 32

// Run starts the forward-worker pool and blocks until ctx is
// cancelled.
func (r *Router) Run(ctx context.Context) error {
	return r.forwardPool.Run(ctx)
}

// Authenticate resolves apiKey to a Binding, checking the cache
// first, the negative cache second, and falling back to an external
// verify call on a full miss. A successful external verification is
// written through to the cache; a failed one is written through to
// the negative cache.
func (r *Router) Authenticate(ctx context.Context, apiKey string) (Binding, bool) {
	if b, ok := r.cache.Lookup(apiKey); ok {
		r.metrics.AuthCacheHits.Inc()
		return b, true
	}
	if r.cache.Rejected(apiKey) {
		r.metrics.AuthCacheHits.Inc()
		return Binding{}, false
	}

	r.metrics.AuthCacheMisses.Inc()
	start := time.Now()
	b, ok := r.verifier.Verify(ctx, apiKey)
	r.metrics.VerifyDuration.Observe(time.Since(start).Seconds())

	if !ok {
		r.cache.StoreRejected(apiKey)
		return Binding{}, false
	}
	r.cache.Store(apiKey, b)
	return b, true
}

// ForwardOnce performs a single synchronous command round trip
// against the Node Manager, for header-mode requests that have no
// persistent client connection to pump replies back through.
func (r *Router) ForwardOnce(ctx context.Context, tenantID, commandLine string) (string, error) {
	r.metrics.ProxyBytes.WithLabelValues("out").Add(float64(len(commandLine)))
	reply, err := executeOnNodeManager(ctx, r.httpClient, r.nodeManagerURL, tenantID, commandLine)
	if err == nil {
		r.metrics.ProxyBytes.WithLabelValues("in").Add(float64(len(reply)))
	}
	return reply, err
}

// nodeListEntry mirrors the Node Manager's GET /list response shape.
type nodeListEntry struct {
	TenantID   string `json:"tenant_id"`
	Status     string `json:"status"`
	MemoryUsed int64  `json:"memory_used"`
	KeyCount   int    `json:"key_count"`
}

// Stats answers the line-mode STATS command by calling the Node
// Manager's GET /list directly rather than proxying to a Keyspace.
func (r *Router) Stats(ctx context.Context, tenantID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.nodeManagerURL+"/list", nil)
	if err != nil {
		return "", err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling node manager: %w", err)
	}
	defer resp.Body.Close()

	var entries []nodeListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", fmt.Errorf("decoding node list: %w", err)
	}

	for _, e := range entries {
		if e.TenantID == tenantID {
			text := fmt.Sprintf("tenant=%s status=%s memory_used=%d keys=%d",
				e.TenantID, e.Status, e.MemoryUsed, e.KeyCount)
			return fmt.Sprintf("$%d\r\n%s\r\n", len(text), text), nil
		}
	}
	return "", fmt.Errorf("tenant %s not found", tenantID)
}

// ListenAndServeLine starts a line-mode TCP listener on addr and
// blocks until ctx is cancelled or the listener errors.
func (r *Router) ListenAndServeLine(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	listener := NewLineListener(r.logger, r)
	err = listener.Serve(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
