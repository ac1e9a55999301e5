package widget

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/delhihouse/pkg/logger"
)

// Availability is a cached probe result.
type Availability struct {
	Outcome   Outcome   `json:"-"`
	Available bool      `json:"available"`
	CheckedAt time.Time `json:"checked_at"`
}

const probeKey = "loader"

// Prober checks from the server whether the widget loader answers, so pages
// can render the static call-to-action up front when it does not.
type Prober struct {
	cfg      Config
	client   *http.Client
	ttl      time.Duration
	now      func() time.Time
	logger   logger.Logger
	observer func(Outcome)

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	last       Availability
	refreshing bool
	closed     bool
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithHTTPClient sets the client used for probes.
func WithHTTPClient(c *http.Client) ProberOption {
	return func(p *Prober) {
		if c != nil {
			p.client = c
		}
	}
}

// WithTTL sets how long a probe result is reused.
func WithTTL(ttl time.Duration) ProberOption {
	return func(p *Prober) { p.ttl = ttl }
}

// WithProbeClock overrides the time source.
func WithProbeClock(now func() time.Time) ProberOption {
	return func(p *Prober) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ProberOption {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver receives every fresh probe outcome.
func WithObserver(fn func(Outcome)) ProberOption {
	return func(p *Prober) { p.observer = fn }
}

// NewProber creates a prober for cfg. Close releases it.
func NewProber(cfg Config, opts ...ProberOption) *Prober {
	p := &Prober{
		cfg:    cfg,
		client: &http.Client{},
		ttl:    5 * time.Minute,
		now:    time.Now,
		logger: logger.GetOr(logger.Nop()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Check returns the cached availability without waiting on the network once
// a result exists. A result older than the TTL is returned as is while one
// background probe replaces it. Only the very first call probes inline, and
// concurrent first callers share that probe.
func (p *Prober) Check(ctx context.Context) Availability {
	p.mu.Lock()
	a := p.last
	if a.CheckedAt.IsZero() {
		p.mu.Unlock()
		return p.Refresh()
	}
	if p.now().Sub(a.CheckedAt) >= p.ttl && p.goRefreshLocked() {
		p.logger.Debug(ctx, "reservation widget availability is stale, refreshing")
	}
	p.mu.Unlock()
	return a
}

// Warm starts a background probe unless one is already running.
func (p *Prober) Warm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goRefreshLocked()
}

func (p *Prober) goRefreshLocked() bool {
	if p.refreshing || p.closed {
		return false
	}
	p.refreshing = true
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Refresh()
		p.mu.Lock()
		p.refreshing = false
		p.mu.Unlock()
	}()
	return true
}

// Refresh probes the loader and caches the result. Concurrent calls share
// one probe. A probe cut short by Close leaves the cache untouched.
func (p *Prober) Refresh() Availability {
	v, _, _ := p.group.Do(probeKey, func() (any, error) {
		if p.ctx.Err() != nil {
			return p.Last(), nil
		}
		o := p.probe(p.ctx)
		if o == Canceled || p.ctx.Err() != nil {
			return p.Last(), nil
		}
		a := Availability{Outcome: o, Available: o == Loaded, CheckedAt: p.now()}
		p.mu.Lock()
		p.last = a
		p.mu.Unlock()
		if p.observer != nil {
			p.observer(o)
		}
		p.logger.Info(p.ctx, "reservation widget probed",
			logger.String("outcome", o.String()), logger.Bool("available", a.Available))
		return a, nil
	})
	return v.(Availability)
}

// Last returns the cached availability without probing.
func (p *Prober) Last() Availability {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Close cancels a running probe and waits for background refreshes.
func (p *Prober) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

func (p *Prober) probe(ctx context.Context) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := NewLoader(p.cfg.LoadTimeout, OnFallback(func(o Outcome) {
		p.logger.Warn(ctx, "reservation widget unavailable, using fallback", logger.String("outcome", o.String()))
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.LoaderURL(), nil)
		if err != nil {
			l.Failed()
			return
		}
		resp, err := p.client.Do(req)
		if err != nil {
			l.Failed()
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			l.Loaded()
			return
		}
		l.Failed()
	}()

	o := l.Wait(ctx)
	cancel()
	wg.Wait()
	return o
}
