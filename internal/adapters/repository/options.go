package repository

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces record ids.
type IDGenerator func() string

// UUIDv7 produces time-sortable RFC 9562 ids.
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

type settings struct {
	ids                   IDGenerator
	now                   func() time.Time
	busyTimeout           time.Duration
	metricsUpdateInterval time.Duration
	mkdirAll              bool
}

func defaultSettings() settings {
	return settings{
		ids:                   UUIDv7,
		now:                   time.Now,
		busyTimeout:           10 * time.Second,
		metricsUpdateInterval: 5 * time.Second,
	}
}

// Option configures a store.
type Option func(*settings)

// WithIDGenerator overrides how record ids are assigned.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *settings) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithClock overrides the time source for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithMetricsUpdateInterval sets the interval of the stored-leads gauge refresh;
// zero disables it.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval >= 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithMkdirAll creates the parent directory of the database file.
func WithMkdirAll() Option {
	return func(s *settings) { s.mkdirAll = true }
}
