// Package queue holds accepted scan requests until a worker picks them up.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request without blocking. It returns ErrFull when no
	// slot is free and ErrClosed after Close.
	Enqueue(ctx context.Context, req model.ScanRequest) error

	// Dequeue returns a channel of waiting requests. The channel closes once
	// the queue is closed and drained. A ctx that is already done yields a
	// closed channel; otherwise receivers watch ctx themselves.
	Dequeue(ctx context.Context) <-chan model.ScanRequest

	// Drain empties the queue without blocking and returns what it held.
	Drain() []model.ScanRequest

	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan model.ScanRequest
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan model.ScanRequest, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, req model.ScanRequest) error { //nolint:gocritic // hugeParam: requests travel by value over the channel
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.requests <- req:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue. Receivers read the backing channel directly, so
// a request leaves the queue only when a receiver takes it.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.ScanRequest {
	if ctx.Err() != nil {
		done := make(chan model.ScanRequest)
		close(done)
		return done
	}
	return q.requests
}

// Drain removes and returns every request still waiting, without blocking.
func (q *InMemoryQueue) Drain() []model.ScanRequest {
	var left []model.ScanRequest
	for {
		select {
		case req, ok := <-q.requests:
			if !ok {
				q.observe()
				return left
			}
			left = append(left, req)
		default:
			q.observe()
			return left
		}
	}
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Capacity implements Queue.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting requests. Requests already queued can still be
// dequeued.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() int {
	size := len(q.requests)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

var _ Queue = (*InMemoryQueue)(nil)
