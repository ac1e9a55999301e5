// Package worker drains the lead queue and writes each lead to storage.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/delhihouse/internal/adapters/mq/queue"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
	"github.com/okian/delhihouse/pkg/metrics"
)

const (
	defaultWorkerCount     = 2
	defaultBackoff         = 200 * time.Millisecond
	defaultMetricsInterval = 5 * time.Second
	poolShutdownTimeout    = 30 * time.Second
)

// Item is what workers read off the queue.
type Item = queue.Item

// Store persists leads.
type Store interface {
	Create(ctx context.Context, l model.Lead) (model.Lead, error)
}

// Queue is the consumer side of the lead queue.
type Queue interface {
	Dequeue() <-chan Item
	Len() int
}

// InMemoryWorker reads items until the queue closes.
type InMemoryWorker struct {
	queue     Queue
	store     Store
	name      string
	retries   int
	backoff   time.Duration
	onFailure func(Item, error)

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		store:   store,
		name:    "worker",
		retries: 2,
		backoff: defaultBackoff,
		done:    make(chan struct{}),
		logger:  logger.GetOr(logger.Nop()),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes items until the queue is closed and drained. Canceling ctx
// abandons pending items.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, it); err != nil {
				w.logger.Error(ctx, "failed to persist lead",
					logger.String("email", it.Lead.Email),
					logger.Error(err))
				if w.onFailure != nil {
					w.onFailure(it, err)
				}
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, it Item) error {
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff * time.Duration(attempt)):
			}
		}
		var stored model.Lead
		stored, err = w.store.Create(ctx, it.Lead)
		if err == nil {
			metrics.RecordLeadPersisted(float64(time.Since(it.EnqueuedAt).Milliseconds()))
			w.logger.Debug(ctx, "lead persisted",
				logger.String("id", stored.ID),
				logger.Int("attempts", attempt+1))
			return nil
		}
		w.logger.Warn(ctx, "lead write failed", logger.Int("attempt", attempt+1), logger.Error(err))
	}
	metrics.RecordErrorByComponent("worker", "persist")
	return fmt.Errorf("persist lead after %d attempts: %w", w.retries+1, err)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	workerOpts      []Option
	metricsInterval time.Duration

	stop   chan struct{}
	wg     sync.WaitGroup
	logger logger.Logger
}

// NewPool creates count workers. count < 1 uses the default.
func NewPool(count int, q Queue, store Store, opts ...PoolOption) *Pool {
	if count < 1 {
		count = defaultWorkerCount
	}
	p := &Pool{
		queue:           q,
		metricsInterval: defaultMetricsInterval,
		stop:            make(chan struct{}),
		logger:          logger.GetOr(logger.Nop()).Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.workers = make([]*InMemoryWorker, count)
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, p.workerOpts...)
		p.workers[i] = NewInMemoryWorker(q, store, wopts...)
	}
	return p
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
	if p.metricsInterval > 0 {
		p.wg.Add(1)
		go p.updateMetrics(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

func (p *Pool) updateMetrics(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.metricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.queue.Len()
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.stop)
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
