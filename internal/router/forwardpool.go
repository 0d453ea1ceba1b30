package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/emberkv/emberkv/internal/telemetry"
)

// defaultForwardWorkers bounds how many in-flight request/reply round
// trips the Router runs against the Node Manager at once.
const defaultForwardWorkers = 8

// forwardJob is one line-mode command awaiting a round trip to the
// Node Manager: the tenant it belongs to, the command line to send,
// and where to write the single RESP reply back. writeMu
// serializes replies for one client connection, since several
// forward workers may finish requests from the same connection out
// of order relative to each other's latency even though the client
// sent them in order.
type forwardJob struct {
	tenantID    string
	commandLine string
	client      net.Conn
	writeMu     *sync.Mutex
	done        chan<- struct{}
}

type executeRequest struct {
	TenantID string `json:"tenant_id"`
	Command  string `json:"command"`
}

// ForwardPool is the Router's bounded worker pool for line-mode
// request/reply forwarding, mirroring the Node Manager's workQueue: a
// fixed-capacity channel drained by a fixed number of workers
// supervised by an errgroup. Each worker calls the Node Manager's
// POST /execute over a shared, keep-alive http.Client rather than
// dialing a raw socket per tenant — the Node Manager demultiplexes by
// tenant ID in the request body, not by listening port (the "port"
// the control plane hands out is routing metadata, not a socket the
// Node Manager binds).
type ForwardPool struct {
	jobs           chan forwardJob
	workers        int
	httpClient     *http.Client
	nodeManagerURL string
	metrics        *telemetry.RouterMetrics
}

// NewForwardPool builds a pool of workers workers draining a queue of
// capacity capacity, forwarding to nodeManagerURL over httpClient.
// metrics may be nil to disable instrumentation.
func NewForwardPool(workers, capacity int, httpClient *http.Client, nodeManagerURL string, metrics *telemetry.RouterMetrics) *ForwardPool {
	if workers <= 0 {
		workers = defaultForwardWorkers
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &ForwardPool{
		jobs:           make(chan forwardJob, capacity),
		workers:        workers,
		httpClient:     httpClient,
		nodeManagerURL: nodeManagerURL,
		metrics:        metrics,
	}
}

// Submit enqueues job without blocking, returning false if the queue
// is saturated — the caller must reply "server busy" itself.
func (f *ForwardPool) Submit(job forwardJob) bool {
	select {
	case f.jobs <- job:
		return true
	default:
		return false
	}
}

// Run starts the worker pool and blocks until ctx is cancelled.
func (f *ForwardPool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < f.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					f.drain()
					return nil
				case job := <-f.jobs:
					f.handle(ctx, job)
				}
			}
		})
	}

	return g.Wait()
}

func (f *ForwardPool) drain() {
	for {
		select {
		case job := <-f.jobs:
			f.handle(context.Background(), job)
		default:
			return
		}
	}
}

// handle performs one command round trip against the Node Manager,
// writing the reply back to the client under writeMu, then signals
// done.
func (f *ForwardPool) handle(ctx context.Context, job forwardJob) {
	defer close(job.done)

	if f.metrics != nil {
		f.metrics.ProxyBytes.WithLabelValues("out").Add(float64(len(job.commandLine)))
	}

	line, err := executeOnNodeManager(ctx, f.httpClient, f.nodeManagerURL, job.tenantID, job.commandLine)
	if err != nil {
		line = fmt.Sprintf("-ERR %v\r\n", err)
	}
	if f.metrics != nil {
		f.metrics.ProxyBytes.WithLabelValues("in").Add(float64(len(line)))
	}
	f.reply(job, line)
}

func (f *ForwardPool) reply(job forwardJob, line string) {
	job.writeMu.Lock()
	defer job.writeMu.Unlock()
	fmt.Fprint(job.client, line)
}

// Depth reports the number of jobs currently queued.
func (f *ForwardPool) Depth() int {
	return len(f.jobs)
}

// executeOnNodeManager POSTs one command to the Node Manager's
// /execute endpoint and returns the raw RESP reply it wrote back.
func executeOnNodeManager(ctx context.Context, client *http.Client, nodeManagerURL, tenantID, commandLine string) (string, error) {
	body, err := json.Marshal(executeRequest{TenantID: tenantID, Command: commandLine})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, nodeManagerURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling node manager: %w", err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading node manager reply: %w", err)
	}
	return string(reply), nil
}
