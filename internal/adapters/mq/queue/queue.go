// Package queue buffers accepted contact submissions between the HTTP
// handler and the workers that write them to storage.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/metrics"
)

const defaultCapacity = 1024

// Item is a lead waiting to be persisted.
type Item struct {
	Lead model.Lead
	// Token is the form token the submission was deduplicated on.
	Token      string
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds it, or returns ErrFull or ErrClosed without blocking.
	Enqueue(ctx context.Context, it Item) error

	// Dequeue returns the channel workers receive from. It is closed by Close
	// once drained.
	Dequeue() <-chan Item

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue stamps it with the enqueue time when unset and adds it to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_canceled")
		return err
	}
	if it.EnqueuedAt.IsZero() {
		it.EnqueuedAt = q.now()
	}

	select {
	case q.items <- it:
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError("full")
		metrics.RecordErrorByComponent("queue", "full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Item {
	return q.items
}

// Len returns the number of pending items and refreshes the size gauges.
func (q *InMemoryQueue) Len() int {
	return q.observe()
}

func (q *InMemoryQueue) observe() int {
	n := len(q.items)
	metrics.UpdateQueueSize(n)
	metrics.UpdateQueueUtilization(float64(n) / float64(q.capacity))
	return n
}

// Close stops accepting items. Pending items stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
