package dedupe

import "time"

// Option configures a token deduper.
type Option func(*tokenDeduper)

// WithMaxSize caps the number of remembered tokens; <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *tokenDeduper) {
		d.maxSize = maxSize
	}
}

// WithWindow sets how long a token is remembered; <= 0 keeps tokens until
// evicted by size.
func WithWindow(window time.Duration) Option {
	return func(d *tokenDeduper) {
		d.window = window
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *tokenDeduper) {
		if now != nil {
			d.now = now
		}
	}
}
