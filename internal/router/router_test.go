package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emberkv/emberkv/internal/telemetry"
)

func newTestRouter(t *testing.T, controlPlaneURL string) *Router {
	t.Helper()
	return newTestRouterWithNodeManager(t, controlPlaneURL, "http://unused")
}

func newTestRouterWithNodeManager(t *testing.T, controlPlaneURL, nodeManagerURL string) *Router {
	t.Helper()
	return New(
		slog.New(slog.DiscardHandler),
		telemetry.NewRouterMetrics(),
		controlPlaneURL,
		"localhost",
		nodeManagerURL,
		Options{
			CacheSize:       16,
			CacheTTL:        time.Minute,
			NegativeTTL:     time.Second,
			PoolSizePerPort: 4,
			ForwardWorkers:  2,
			ForwardQueueCap: 8,
		},
	)
}

func TestAuthenticateCachesSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Path {
		case "/api/verify":
			fmt.Fprint(w, `{"tenant_id":"t1"}`)
		case "/api/tenants/t1":
			fmt.Fprint(w, `{"node_port":6380}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := newTestRouter(t, srv.URL)

	b, ok := r.Authenticate(context.Background(), "k1")
	if !ok {
		t.Fatal("expected authentication to succeed")
	}
	if b.TenantID != "t1" || b.Port != 6380 {
		t.Errorf("unexpected binding: %+v", b)
	}

	callsAfterFirst := calls
	if _, ok := r.Authenticate(context.Background(), "k1"); !ok {
		t.Fatal("expected cached authentication to succeed")
	}
	if calls != callsAfterFirst {
		t.Errorf("expected cache hit to avoid another control-plane call, calls went from %d to %d", callsAfterFirst, calls)
	}
}

func TestAuthenticateCachesFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := newTestRouter(t, srv.URL)

	if _, ok := r.Authenticate(context.Background(), "bad"); ok {
		t.Fatal("expected authentication to fail")
	}
	callsAfterFirst := calls

	if _, ok := r.Authenticate(context.Background(), "bad"); ok {
		t.Fatal("expected authentication to still fail")
	}
	if calls != callsAfterFirst {
		t.Errorf("expected negative cache to avoid another control-plane call, calls went from %d to %d", callsAfterFirst, calls)
	}
}

func TestForwardOnceRoundTrip(t *testing.T) {
	nodeManagerURL := fakeNodeManager(t)
	r := newTestRouterWithNodeManager(t, "http://unused", nodeManagerURL)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := r.ForwardOnce(ctx, "t1", "PING")
	if err != nil {
		t.Fatalf("ForwardOnce: %v", err)
	}
	if reply != "+OK\r\n" {
		t.Errorf("reply = %q, want +OK\\r\\n", reply)
	}
}

func TestStatsFindsTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[{"tenant_id":"t1","status":"running","memory_used":1024,"key_count":3}]`)
	}))
	defer srv.Close()

	r := newTestRouterWithNodeManager(t, "http://unused", srv.URL)

	reply, err := r.Stats(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if reply == "" {
		t.Error("expected a non-empty bulk-string reply")
	}
}

func TestStatsUnknownTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	r := newTestRouterWithNodeManager(t, "http://unused", srv.URL)

	if _, err := r.Stats(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unknown tenant")
	}
}
