// Package worker defines worker contracts for asynchronous verification.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/ecowander/ecoproof/internal/adapters/mq/queue"
	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/pkg/logger"
	"github.com/ecowander/ecoproof/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the model.Job type for consistency.
type Job = model.Job

// Verifier runs the full verification pipeline for a request.
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) (model.VerificationResult, error)
}

// ResultSink persists completed verification results.
type ResultSink interface {
	Put(ctx context.Context, result model.VerificationResult) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and writes verification results using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing verification jobs.
type InMemoryWorker struct {
	queue    Queue
	verifier Verifier
	sink     ResultSink
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, verifier Verifier, sink ResultSink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		verifier: verifier,
		sink:     sink,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Process the job
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single verification job. Verification failures
// for a malformed request still produce a stored rejection result so
// the submitter can observe the outcome by id.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	result, err := w.verifier.Verify(ctx, job.Request)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "verification_error")
		metrics.RecordErrorByType("verification_error", "high")
		w.logger.Error(ctx, "verification failed for job",
			logger.String("jobID", job.JobID),
			logger.Error(err),
		)
		// Store a rejection under the job id so lookups do not dangle.
		result = model.VerificationResult{
			ID:            job.JobID,
			IsVerified:    false,
			ChallengeType: job.Request.ChallengeType,
			Degraded:      map[string]string{"request": err.Error()},
			GeneratedAt:   time.Now().UTC(),
		}
	} else {
		// The engine mints its own id; the job id is the handle the
		// submitter holds, so results are keyed by it.
		result.ID = job.JobID
	}

	if err := w.sink.Put(ctx, result); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "result_store_error")
		metrics.RecordErrorByType("result_store_error", "high")
		w.logger.Error(ctx, "result store failed for job",
			logger.String("jobID", job.JobID),
			logger.Error(err),
		)
		return fmt.Errorf("result store failed: %w", err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	verifier Verifier
	sink     ResultSink

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processedCount    int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, verifier Verifier, sink ResultSink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		verifier:          verifier,
		sink:              sink,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			verifier,
			sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval) // Update metrics every 5 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	// Calculate messages per second
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		messagesPerSecond := float64(p.processedCount) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(messagesPerSecond)
	}

	// Reset counters
	p.processedCount = 0
	p.lastProcessedTime = now
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
