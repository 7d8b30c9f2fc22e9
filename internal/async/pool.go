// Package async provides the bounded worker pool that caps concurrent
// extractions. Browser and OCR work is heavy; the pool turns excess load
// into an immediate backpressure error instead of an unbounded pile-up.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSaturated is returned when the queue has no room for another job.
var ErrSaturated = errors.New("worker pool saturated")

// Job is one queued unit of work.
type Job struct {
	ID          string
	SubmittedAt time.Time
	Run         func(ctx context.Context)
}

// Pool runs jobs on a fixed set of workers over a bounded queue.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	logger  *slog.Logger
	closing sync.Once
}

func NewPool(workers, depth int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if depth <= 0 {
		depth = 64
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan Job, depth),
		cancel: cancel,
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	logger.Info("async.pool.started", "workers", workers, "depth", depth)
	return p
}

// TrySubmit enqueues fn without blocking. ErrSaturated means the caller
// should shed the request.
func (p *Pool) TrySubmit(fn func(ctx context.Context)) (string, error) {
	job := Job{
		ID:          uuid.New().String(),
		SubmittedAt: time.Now(),
		Run:         fn,
	}
	select {
	case p.jobs <- job:
		return job.ID, nil
	default:
		p.logger.Warn("async.pool.saturated", "depth", cap(p.jobs))
		return "", ErrSaturated
	}
}

// Submit enqueues fn, blocking until there is room or ctx expires.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context)) (string, error) {
	job := Job{
		ID:          uuid.New().String(),
		SubmittedAt: time.Now(),
		Run:         fn,
	}
	select {
	case p.jobs <- job:
		return job.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops accepting work and waits for in-flight jobs, up to ctx.
func (p *Pool) Shutdown(ctx context.Context) {
	p.closing.Do(func() {
		close(p.jobs)
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Info("async.pool.drained")
		case <-ctx.Done():
			p.logger.Warn("async.pool.shutdown_timeout")
			p.cancel()
		}
	})
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		wait := time.Since(job.SubmittedAt)
		p.logger.Debug("async.job.start", "job_id", job.ID, "worker", id, "queued_ms", wait.Milliseconds())
		job.Run(ctx)
	}
}
