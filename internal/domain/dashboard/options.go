package dashboard

import (
	"time"

	"github.com/okian/delhihouse/pkg/logger"
)

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the board logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides the clock used for stats and fetch times.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}
