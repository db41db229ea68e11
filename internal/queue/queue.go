// Package queue serializes incoming search requests into single-flight
// execution. The automation collaborator is one exclusive browser session,
// so exactly one job runs at a time; a superseding request simply waits its
// turn. A started job is never canceled.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FerX10/naturbot/internal/search"
)

var ErrQueueClosed = errors.New("search queue closed")

// Runner executes one search to completion.
type Runner interface {
	Run(ctx context.Context, req search.Request) search.Outcome
}

type job struct {
	id     string
	req    search.Request
	result chan search.Outcome
}

// Queue admits one search job at a time against the runner.
type Queue struct {
	runner Runner
	jobs   chan *job
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New creates the queue and starts its single worker. size bounds how many
// jobs may wait before Submit blocks.
func New(runner Runner, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 16
	}
	q := &Queue{
		runner: runner,
		jobs:   make(chan *job, size),
		logger: logger,
	}
	go q.work()
	return q
}

// Submit enqueues the request and blocks until its outcome. The context only
// covers the wait: once the worker picks the job up it runs to completion
// regardless of the submitter.
func (q *Queue) Submit(ctx context.Context, req search.Request) (search.Outcome, error) {
	j := &job{
		id:     uuid.New().String(),
		req:    req,
		result: make(chan search.Outcome, 1),
	}

	if err := q.enqueue(ctx, j); err != nil {
		return search.Outcome{}, err
	}

	q.logger.Info("search job queued", "job_id", j.id, "destination", req.Destination)

	select {
	case out := <-j.result:
		return out, nil
	case <-ctx.Done():
		return search.Outcome{}, context.Cause(ctx)
	}
}

// enqueue holds the lock across the send so Close can never close the
// channel between the closed check and the send.
func (q *Queue) enqueue(ctx context.Context, j *job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- j:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Close stops admitting jobs; the worker exits once the backlog drains.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.jobs)
}

func (q *Queue) work() {
	for j := range q.jobs {
		start := time.Now()
		q.logger.Info("search job started", "job_id", j.id)

		// Jobs are not cancellable once started; the orchestrator's own
		// phase timeouts bound the execution.
		out := q.runner.Run(context.Background(), j.req)

		q.logger.Info("search job finished",
			"job_id", j.id,
			"success", out.Success,
			"duration_ms", time.Since(start).Milliseconds())
		j.result <- out
	}
}
