package auth

import (
	"time"

	"github.com/okian/delhihouse/pkg/logger"
)

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAttemptLimit allows perMinute sign-in attempts per e-mail with the
// given burst; perMinute <= 0 disables limiting.
func WithAttemptLimit(perMinute, burst int) Option {
	return func(a *Authenticator) {
		a.limiter = newAttemptLimiter(perMinute, burst)
	}
}
