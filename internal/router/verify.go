package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
)

// verifyTimeout is the hard ceiling on an end-to-end verification
// round trip — a timeout is a verification failure, never an
// authentication.
const verifyTimeout = 5 * time.Second

// Verifier calls the external control plane to resolve an API key to
// a tenant and the tenant's node port, wrapped in a circuit breaker
// and a bounded retry so a flaky control plane degrades to
// "invalid API key" rather than hanging every connecting client.
//
// Built directly on sony/gobreaker and avast/retry-go, since the
// Router needs only the two calls below.
type Verifier struct {
	baseURL     string
	backendHost string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// NewVerifier builds a Verifier against the control plane at baseURL.
// backendHost is the Router's own view of where Node Manager traffic
// should be routed; only the port is read from the control plane's
// tenant record.
func NewVerifier(baseURL, backendHost string) *Verifier {
	st := gobreaker.Settings{
		Name:        "control-plane-verify",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Verifier{
		baseURL:     baseURL,
		backendHost: backendHost,
		httpClient:  &http.Client{Timeout: verifyTimeout},
		breaker:     gobreaker.NewCircuitBreaker[[]byte](st),
	}
}

type verifyResponse struct {
	TenantID string `json:"tenant_id"`
}

// Verify resolves apiKey to a Binding via the control plane's
// /api/verify and /api/tenants/{id} endpoints. Any failure — network
// error, timeout, breaker trip, or an empty tenant_id — is reported
// as ok=false, never as a false authentication.
func (v *Verifier) Verify(ctx context.Context, apiKey string) (Binding, bool) {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	tenantID, ok := v.verifyKey(ctx, apiKey)
	if !ok {
		return Binding{}, false
	}

	port, ok := v.tenantPort(ctx, tenantID)
	if !ok {
		return Binding{}, false
	}

	return Binding{TenantID: tenantID, Host: v.backendHost, Port: port}, true
}

func (v *Verifier) verifyKey(ctx context.Context, apiKey string) (string, bool) {
	u := fmt.Sprintf("%s/api/verify?key=%s", v.baseURL, url.QueryEscape(apiKey))

	body, err := v.breaker.Execute(func() ([]byte, error) {
		return v.getWithRetry(ctx, u)
	})
	if err != nil {
		return "", false
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.TenantID == "" {
		return "", false
	}
	return resp.TenantID, true
}

type tenantResponse struct {
	NodePort int `json:"node_port"`
}

func (v *Verifier) tenantPort(ctx context.Context, tenantID string) (int, bool) {
	u := fmt.Sprintf("%s/api/tenants/%s", v.baseURL, url.PathEscape(tenantID))

	body, err := v.breaker.Execute(func() ([]byte, error) {
		return v.getWithRetry(ctx, u)
	})
	if err != nil {
		return 0, false
	}

	var resp tenantResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.NodePort == 0 {
		return 0, false
	}
	return resp.NodePort, true
}

// getWithRetry issues a GET, retrying a failure once more (two
// attempts in total) within the caller's context deadline.
func (v *Verifier) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := v.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("control plane returned status %d", resp.StatusCode)
			}

			buf := make([]byte, 0, 256)
			chunk := make([]byte, 256)
			for {
				n, readErr := resp.Body.Read(chunk)
				buf = append(buf, chunk[:n]...)
				if readErr != nil {
					break
				}
			}
			body = buf
			return nil
		},
		retry.Attempts(2),
		retry.Context(ctx),
	)
	return body, err
}
