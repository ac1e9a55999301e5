package widget

import (
	"context"
	"sync"
	"time"
)

// Outcome of a widget load.
type Outcome int

const (
	Pending Outcome = iota
	Loaded
	Failed
	TimedOut
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// NeedsFallback reports whether the static call-to-action should be shown.
func (o Outcome) NeedsFallback() bool { return o == Failed || o == TimedOut }

// Loader races the widget's loaded and failed signals against a timeout.
// It resolves exactly once; signals after resolution are ignored and the
// fallback callback never runs twice.
type Loader struct {
	timeout  time.Duration
	after    func(time.Duration) <-chan time.Time
	signals  chan Outcome
	done     chan struct{}
	once     sync.Once
	outcome  Outcome
	fallback func(Outcome)
	resolved func(Outcome)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// OnFallback runs fn once when the load failed or timed out.
func OnFallback(fn func(Outcome)) LoaderOption {
	return func(l *Loader) { l.fallback = fn }
}

// OnResolved runs fn once with whatever outcome the load resolved to.
func OnResolved(fn func(Outcome)) LoaderOption {
	return func(l *Loader) { l.resolved = fn }
}

// WithAfter replaces time.After, for tests.
func WithAfter(after func(time.Duration) <-chan time.Time) LoaderOption {
	return func(l *Loader) {
		if after != nil {
			l.after = after
		}
	}
}

// NewLoader creates a loader with the given timeout.
func NewLoader(timeout time.Duration, opts ...LoaderOption) *Loader {
	l := &Loader{
		timeout: timeout,
		after:   time.After,
		signals: make(chan Outcome, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Loaded signals that the widget rendered.
func (l *Loader) Loaded() { l.signal(Loaded) }

// Failed signals that the widget reported an error.
func (l *Loader) Failed() { l.signal(Failed) }

func (l *Loader) signal(o Outcome) {
	select {
	case l.signals <- o:
	default:
	}
}

// Wait blocks until a signal arrives, the timeout fires or ctx is done, and
// returns the resolved outcome. Later calls return the same outcome.
func (l *Loader) Wait(ctx context.Context) Outcome {
	select {
	case <-l.done:
		return l.outcome
	default:
	}
	timer := l.after(l.timeout)
	var o Outcome
	select {
	case o = <-l.signals:
	case <-timer:
		o = TimedOut
	case <-ctx.Done():
		o = Canceled
	case <-l.done:
	}
	l.resolve(o)
	return l.outcome
}

// Done is closed once the loader resolved.
func (l *Loader) Done() <-chan struct{} { return l.done }

func (l *Loader) resolve(o Outcome) {
	l.once.Do(func() {
		l.outcome = o
		close(l.done)
		if l.resolved != nil {
			l.resolved(o)
		}
		if o.NeedsFallback() && l.fallback != nil {
			l.fallback(o)
		}
	})
}
