package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/pipeline"
)

// ProcessorQueue runs pipeline jobs on a fixed set of workers. Process blocks
// until the caller's job has run, so callers see a synchronous API while the
// number of concurrent OCR-heavy runs stays bounded.
type ProcessorQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		ch:      make(chan Job, 16),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	// the submitter may have given up while the job sat in the queue
	if err := job.Ctx.Err(); err != nil {
		job.reply <- outcome{err: err}
		return
	}
	waited := time.Since(job.SubmittedAt)
	res, err := q.proc.Process(job.Ctx, job.Path)
	if err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "req_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("processed file successfully",
			"worker_id", workerID,
			"req_id", job.TraceID,
			"queued_ms", waited.Milliseconds(),
			"degraded", len(res.Degraded),
		)
	}
	job.reply <- outcome{res: res, err: err}
}

// Process queues path and waits for its result. It gives up with ctx's error
// if ctx ends first, and returns ErrQueueClosed after Shutdown.
func (q *ProcessorQueue) Process(ctx context.Context, path string) (pipeline.Result, error) {
	job := Job{
		Ctx:         ctx,
		Path:        path,
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(ctx),
		reply:       make(chan outcome, 1),
	}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "req_id", job.TraceID)
		return pipeline.Result{}, ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.mu.RUnlock()
	default:
		q.logger.Warn("queue full, applying backpressure", "req_id", job.TraceID)
		select {
		case q.ch <- job:
			q.mu.RUnlock()
		case <-ctx.Done():
			q.mu.RUnlock()
			return pipeline.Result{}, ctx.Err()
		}
	}

	select {
	case out := <-job.reply:
		return out.res, out.err
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
