// Package service wires the storage, queue, auth and widget components and
// exposes the operations the HTTP layer needs.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/mq/queue"
	"github.com/okian/delhihouse/internal/adapters/mq/worker"
	"github.com/okian/delhihouse/internal/adapters/repository"
	"github.com/okian/delhihouse/internal/adapters/widget"
	"github.com/okian/delhihouse/internal/config"
	"github.com/okian/delhihouse/internal/content"
	"github.com/okian/delhihouse/internal/domain/booking"
	"github.com/okian/delhihouse/internal/domain/dashboard"
	"github.com/okian/delhihouse/internal/domain/dedupe"
	"github.com/okian/delhihouse/internal/domain/reveal"
	"github.com/okian/delhihouse/pkg/logger"
)

// Service owns every long-lived component of the site.
type Service struct {
	mu sync.RWMutex

	cfg     *config.Config
	content *content.Content
	loc     *time.Location
	now     func() time.Time

	storage    repository.Storage
	ownStorage bool
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	auth       *auth.Authenticator
	boards     *dashboard.Registry
	bookings   *booking.Service
	widget     widget.Widget
	prober     *widget.Prober
	bindings   []reveal.Binding

	cancelAuth func()
	started    bool
	logger     logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStorage uses s instead of opening cfg.DBPath. The caller keeps ownership.
func WithStorage(s repository.Storage) Option {
	return func(svc *Service) {
		svc.storage = s
	}
}

// WithContent uses c instead of loading cfg.ContentFile.
func WithContent(c *content.Content) Option {
	return func(svc *Service) {
		svc.content = c
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithClock sets the clock used for timestamps, stats and booking ranges.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// New creates a stopped service.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage and starts the workers. It is a no-op when already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.GetOr(logger.Nop()).Named("service")
	}
	s.logger.Info(ctx, "starting site service...")

	loc, err := time.LoadLocation(s.cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.loc = loc

	if s.content == nil {
		c, err := content.Load(s.cfg.ContentFile)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.content = c
	}
	if s.bindings, err = s.content.Bindings(); err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	if s.storage == nil {
		if err := s.openStorage(ctx); err != nil {
			return err
		}
	}

	if err := s.startAuth(); err != nil {
		s.closeStorage()
		return err
	}

	s.boards = dashboard.NewRegistry(meteredStore{s.storage},
		dashboard.WithLogger(s.logger.Named("dashboard")),
		dashboard.WithClock(s.now))
	s.cancelAuth = s.auth.OnAuthStateChanged(func(sess auth.Session, signedIn bool) {
		if !signedIn {
			s.boards.Drop(sess.ID)
		}
	})

	s.bookings = booking.NewService(s.storage, func() time.Time { return s.now().In(s.loc) })

	s.deduper = dedupe.NewTokenDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize), queue.WithClock(s.now))
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, s.storage,
		worker.WithWorkerOptions(
			worker.WithLogger(s.logger.Named("worker")),
			worker.OnFailure(s.persistFailed),
		))
	s.pool.Start(context.WithoutCancel(ctx))

	if err := s.startWidget(ctx); err != nil {
		s.stopLocked(ctx)
		return err
	}

	s.started = true
	s.logger.Info(ctx, "site service started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
		logger.Int("revealSections", len(s.bindings)),
	)
	return nil
}

func (s *Service) openStorage(ctx context.Context) error {
	opts := []repository.Option{repository.WithClock(s.now)}
	if s.cfg.DBPath != repository.MemoryPath {
		opts = append(opts, repository.WithMkdirAll())
	}
	store, err := repository.OpenSQLite(ctx, s.cfg.DBPath, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.storage = store
	s.ownStorage = true
	s.logger.Info(ctx, "using sqlite store", logger.String("path", s.cfg.DBPath))
	return nil
}

func (s *Service) startAuth() error {
	secret := []byte(s.cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("%w: session secret: %w", ErrStart, err)
		}
		s.logger.Warn(context.Background(), "no session_secret configured; sessions end on restart")
	}
	a, err := auth.New(s.storage, secret,
		auth.WithTTL(time.Duration(s.cfg.SessionTTLHours)*time.Hour),
		auth.WithClock(s.now),
		auth.WithLogger(s.logger.Named("auth")),
		auth.WithAttemptLimit(s.cfg.LoginAttemptsPerMinute, s.cfg.LoginBurst))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.auth = a
	return nil
}

// Stop drains the queue and closes owned storage.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping site service...")
	s.stopLocked(ctx)
	s.started = false
	s.logger.Info(ctx, "site service stopped")
}

func (s *Service) stopLocked(ctx context.Context) {
	if s.cancelAuth != nil {
		s.cancelAuth()
		s.cancelAuth = nil
	}
	if s.prober != nil {
		s.prober.Close()
	}
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	s.closeStorage()
}

func (s *Service) closeStorage() {
	if !s.ownStorage {
		return
	}
	if c, ok := s.storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Error(context.Background(), "close storage", logger.Error(err))
		}
	}
	s.storage = nil
	s.ownStorage = false
}

// Ping reports whether storage answers.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	store := s.storage
	s.mu.RUnlock()
	if store == nil {
		return ErrNotStarted
	}
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := store.Count(ctx)
	return err
}

// Auth returns the authenticator. Nil before Start.
func (s *Service) Auth() *auth.Authenticator { return s.auth }

// Content returns the site content.
func (s *Service) Content() *content.Content { return s.content }

// Location returns the zone dates are shown in.
func (s *Service) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

// Now returns the service clock in the configured zone.
func (s *Service) Now() time.Time { return s.now().In(s.Location()) }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
	}
	if !s.started {
		return stats
	}
	ctx := context.Background()
	stats["queueLength"] = s.queue.Len()
	stats["dedupeEntries"] = s.deduper.Size()
	s.boards.Sweep()
	stats["dashboards"] = s.boards.Len()
	if n, err := s.storage.Count(ctx); err == nil {
		stats["leadsStored"] = n
	}
	if s.prober != nil {
		stats["widgetAvailable"] = s.prober.Last().Available
	}
	return stats
}
