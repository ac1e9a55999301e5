package service

import (
	"context"
	"errors"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/repository"
	"github.com/okian/delhihouse/internal/domain/dashboard"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/metrics"
)

// meteredStore is the dashboard's view of the lead store, counting fetch and
// delete outcomes.
type meteredStore struct {
	store repository.Store
}

func (m meteredStore) List(ctx context.Context) ([]model.Lead, error) {
	leads, err := m.store.List(ctx)
	if err != nil {
		metrics.RecordLeadFetchError()
		metrics.RecordErrorByComponent("dashboard", "fetch")
	}
	return leads, err
}

func (m meteredStore) Delete(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, id)
	switch {
	case err == nil:
		metrics.RecordLeadDeleted()
	case errors.Is(err, repository.ErrNotFound):
	default:
		metrics.RecordLeadDeleteError()
		metrics.RecordErrorByComponent("dashboard", "delete")
	}
	return err
}

// Dashboard returns the board of the signed-in session, loading the leads on
// first use. Boards of sessions that lapsed without signing out are dropped.
func (s *Service) Dashboard(ctx context.Context, sess auth.Session) (*dashboard.Board, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	b := s.boards.Board(sess.ID, sess.ExpiresAt)
	if b.State().Authenticated() {
		return b, nil
	}
	b.BeginAuth()
	if err := b.Authenticate(ctx, sess.Email); err != nil {
		var fe *dashboard.FetchError
		if errors.As(err, &fe) || errors.Is(err, dashboard.ErrSuperseded) {
			// Signed in either way; a failed fetch shows as FetchFailed.
			return b, nil
		}
		return b, err
	}
	return b, nil
}

// Bookings lists reservation requests, newest first.
func (s *Service) Bookings(ctx context.Context) ([]model.BookingRequest, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.storage.ListBookings(ctx)
}
