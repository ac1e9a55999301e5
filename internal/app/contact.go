package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/delhihouse/internal/adapters/mq/queue"
	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
	"github.com/okian/delhihouse/pkg/metrics"
)

// ContactResult reports how a contact submission was handled.
type ContactResult struct {
	Token     string `json:"token"`
	Duplicate bool   `json:"duplicate"`
}

// NewFormToken returns a token for one rendering of the contact form.
func NewFormToken() string { return uuid.NewString() }

// SubmitContact sanitizes and validates sub, then queues it for storage.
// A token already seen is acknowledged as a duplicate without queueing.
// When the queue is full the token is forgotten so the visitor can retry.
func (s *Service) SubmitContact(ctx context.Context, sub model.Submission) (ContactResult, error) {
	if !s.isStarted() {
		return ContactResult{}, ErrNotStarted
	}
	sub, err := lead.Prepare(sub)
	if err != nil {
		metrics.RecordLeadRejected("invalid")
		return ContactResult{}, err
	}
	if sub.Token == "" {
		sub.Token = NewFormToken()
	}
	res := ContactResult{Token: sub.Token}

	if s.deduper.SeenAndRecord(ctx, sub.Token) {
		metrics.RecordLeadDuplicate()
		s.logger.Debug(ctx, "duplicate contact submission", logger.String("token", sub.Token))
		res.Duplicate = true
		return res, nil
	}

	it := queue.Item{Lead: sub.Lead(s.now().UTC()), Token: sub.Token}
	if err := s.queue.Enqueue(ctx, it); err != nil {
		s.deduper.Unrecord(ctx, sub.Token)
		if errors.Is(err, queue.ErrFull) {
			metrics.RecordLeadRejected("backpressure")
			return ContactResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		metrics.RecordLeadRejected("unavailable")
		return ContactResult{}, err
	}
	metrics.RecordLeadSubmitted()
	s.logger.Info(ctx, "contact submission queued", logger.String("token", sub.Token))
	return res, nil
}

// persistFailed forgets the token of a lead the workers could not store, so a
// resubmit is not swallowed as a duplicate.
func (s *Service) persistFailed(it queue.Item, err error) {
	ctx := context.Background()
	s.deduper.Unrecord(ctx, it.Token)
	metrics.RecordErrorByComponent("contact", "persist_failed")
	s.logger.Error(ctx, "contact submission lost", logger.String("token", it.Token), logger.Error(err))
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
