// Package queue defines the contract for enqueuing and consuming
// verification jobs.
//
// Implementations may use channels or more advanced structures. The
// service starts with an in-memory bounded queue.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Job represents the payload type flowing through the queue.
// Using the model.Job type for type safety.
type Job = model.Job

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue.
	// Returns false if the queue is full and the job was not enqueued.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that will receive jobs as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new jobs can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs       chan Job
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.jobs) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		currentSize := len(q.jobs)
		metrics.UpdateQueueSize(currentSize)
		metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false // context cancelled
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false // queue is full
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	// Wrap the channel to track dequeue metrics.
	dequeueChan := make(chan Job)
	go func() {
		defer close(dequeueChan)
		for job := range q.jobs {
			select {
			case dequeueChan <- job:
				metrics.RecordQueueDequeue()
				currentSize := len(q.jobs)
				metrics.UpdateQueueSize(currentSize)
				metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.jobs)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
