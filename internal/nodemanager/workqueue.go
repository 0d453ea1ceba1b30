package nodemanager

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// commandJob is one unit of work on the request queue: a tenant, an
// unparsed command line, and a channel the worker writes the single
// RESP reply back on.
type commandJob struct {
	tenantID string
	line     string
	reply    chan<- []byte
}

// workQueue is the bounded request queue plus worker pool: a
// fixed-capacity channel drained by a fixed number of worker
// goroutines supervised by an errgroup, so a panic or error in one
// worker doesn't strand the others mid-shutdown.
type workQueue struct {
	jobs    chan commandJob
	workers int
	handle  func(commandJob) []byte
}

func newWorkQueue(capacity, workers int, handle func(commandJob) []byte) *workQueue {
	return &workQueue{
		jobs:    make(chan commandJob, capacity),
		workers: workers,
		handle:  handle,
	}
}

// submit enqueues job without blocking. Returns false immediately if
// the queue is at capacity — the caller must reply "server busy"
// itself rather than wait.
func (q *workQueue) submit(job commandJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// run starts the worker pool and blocks until ctx is cancelled, then
// stops accepting new drains and returns once in-flight jobs finish.
func (q *workQueue) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					q.drain()
					return nil
				case job := <-q.jobs:
					job.reply <- q.handle(job)
				}
			}
		})
	}

	return g.Wait()
}

// drain finishes every job already sitting in the queue without
// accepting new ones, so a client that submitted work right before
// shutdown still gets a reply instead of hanging forever.
func (q *workQueue) drain() {
	for {
		select {
		case job := <-q.jobs:
			job.reply <- q.handle(job)
		default:
			return
		}
	}
}

// depth reports the number of jobs currently queued, for the
// emberkv_nodemanager_queue_depth gauge.
func (q *workQueue) depth() int {
	return len(q.jobs)
}
