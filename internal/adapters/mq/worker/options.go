package worker

import (
	"time"

	"github.com/okian/delhihouse/pkg/logger"
)

// Option configures an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetries sets how many extra attempts a failed write gets and the delay
// between them.
func WithRetries(n int, backoff time.Duration) Option {
	return func(w *InMemoryWorker) {
		if n >= 0 {
			w.retries = n
		}
		if backoff > 0 {
			w.backoff = backoff
		}
	}
}

// OnFailure is called with an item whose write failed after all retries.
func OnFailure(fn func(it Item, err error)) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = fn
	}
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkerOptions applies opts to every worker in the pool.
func WithWorkerOptions(opts ...Option) PoolOption {
	return func(p *Pool) {
		p.workerOpts = append(p.workerOpts, opts...)
	}
}

// WithMetricsInterval sets how often queue gauges are refreshed. Zero disables.
func WithMetricsInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.metricsInterval = d
	}
}
