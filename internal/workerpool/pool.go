package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abrezinsky/surveydesk/internal/logger"
)

// ErrQueueFull is returned by Submit when the queue has no room
var ErrQueueFull = errors.New("worker pool queue full")

// ErrClosed is returned by Submit after Shutdown
var ErrClosed = errors.New("worker pool closed")

type Job func(ctx context.Context)

// WorkerPool runs submitted jobs on a fixed number of goroutines
type WorkerPool struct {
	log    logger.Logger
	queue  chan Job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// New starts workerCount workers reading from a queue of queueSize.
// Workers stop when ctx is cancelled or the pool is shut down.
func New(ctx context.Context, log logger.Logger, workerCount, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &WorkerPool{
		log:   log,
		queue: make(chan Job, queueSize),
	}

	for range workerCount {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("Worker received shutdown signal")
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(ctx, job)
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Worker job panicked", "panic", r)
		}
	}()
	job(ctx)
}

// Submit queues job without blocking
func (p *WorkerPool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	p.wg.Add(1)
	select {
	case p.queue <- job:
		return nil
	default:
		p.wg.Done()
		p.log.Warn("Worker pool queue full, job dropped")
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx expires
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		p.log.Warn("Worker pool shutdown timed out")
		return ctx.Err()
	case <-done:
		p.log.Debug("Worker pool shutdown complete")
		return nil
	}
}

// WithRetry wraps job so it is attempted up to retries times, delay apart
func WithRetry(log logger.Logger, retries int, delay time.Duration, job func(ctx context.Context) error) Job {
	return func(ctx context.Context) {
		for i := range retries {
			if ctx.Err() != nil {
				log.Debug("Job canceled before execution")
				return
			}

			err := job(ctx)
			if err == nil {
				return
			}
			log.Warn("Job failed", "attempt", i+1, "retries", retries, "error", err)

			if i < retries-1 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}
		}
		log.Error("Job failed after max retries", "retries", retries)
	}
}
