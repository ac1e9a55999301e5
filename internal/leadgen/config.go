// Package leadgen seeds a running site with synthetic contact submissions and
// checks that every accepted one reaches the lead dashboard.
package leadgen

import (
	"time"

	"github.com/okian/delhihouse/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the site
	Count      int           // Number of distinct submissions
	Duplicates int           // Number of resubmissions reusing an earlier token
	Workers    int           // Number of concurrent senders
	Timeout    time.Duration // HTTP request timeout
	Email      string        // Admin e-mail used to verify; empty skips verification
	Password   string        // Admin password
	// SettleTimeout bounds the wait for queued submissions to be stored.
	SettleTimeout time.Duration
	PollInterval  time.Duration
	OutputFile    string // Optional JSON file receiving the generated submissions
	Verbose       bool
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
}

// Stats summarizes a run.
type Stats struct {
	Generated int           `json:"generated"`
	Submitted int           `json:"submitted"`
	Accepted  int           `json:"accepted"`
	Duplicate int           `json:"duplicate"`
	Throttled int           `json:"throttled"`
	Failed    int           `json:"failed"`
	Baseline  int           `json:"baseline"`
	Stored    int           `json:"stored"`
	Verified  bool          `json:"verified"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// Submission is one contact form as posted by the seeder.
type Submission = model.Submission

type ackResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type leadStats struct {
	Total int `json:"total"`
}

// Outcome classifies one POST to the contact endpoint.
type Outcome string

const (
	Accepted  Outcome = "accepted"
	Duplicate Outcome = "duplicate"
	Throttled Outcome = "throttled"
	Failed    Outcome = "failed"
)
