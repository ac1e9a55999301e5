package service

import (
	"errors"

	"github.com/okian/delhihouse/internal/domain/reveal"
)

// Sentinel kinds for service errors.
var (
	ErrStart        = errors.New("service start failed")
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("too many submissions, try again shortly")
)

// ErrUnknownSection is returned for a frame request naming an untracked section.
var ErrUnknownSection = reveal.ErrUnknownSection
