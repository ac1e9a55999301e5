package service

import (
	"context"

	"github.com/okian/delhihouse/internal/domain/booking"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
	"github.com/okian/delhihouse/pkg/metrics"
)

// Book validates and stores a reservation request.
func (s *Service) Book(ctx context.Context, f booking.Form) (model.BookingRequest, error) {
	if !s.isStarted() {
		return model.BookingRequest{}, ErrNotStarted
	}
	if v, ok := s.content.Venue(f.Venue); ok {
		f.Venue = v.Name
	}
	b, err := s.bookings.Submit(ctx, f)
	if err != nil {
		metrics.RecordErrorByComponent("booking", "submit")
		return model.BookingRequest{}, err
	}
	metrics.RecordBookingRequest()
	s.logger.Info(ctx, "booking request stored",
		logger.String("confirmation", b.Confirmation),
		logger.String("venue", b.Venue),
		logger.Int("party", b.PartySize))
	return b, nil
}

// BookingOptions are the choices offered by the booking form.
type BookingOptions struct {
	Venues     []string `json:"venues"`
	TimeSlots  []string `json:"time_slots"`
	PartySizes []int    `json:"party_sizes"`
	FirstDate  string   `json:"first_date"`
	LastDate   string   `json:"last_date"`
	// DefaultPartySize preselects the party size.
	DefaultPartySize int `json:"default_party_size"`
}

// BookingOptions returns today's booking form choices.
func (s *Service) BookingOptions() BookingOptions {
	first, last := booking.DateRange(s.Now())
	venues := make([]string, 0, len(s.content.Venues))
	for _, v := range s.content.Venues {
		venues = append(venues, v.Name)
	}
	return BookingOptions{
		Venues:           venues,
		TimeSlots:        booking.TimeSlots(),
		PartySizes:       booking.PartySizes(),
		FirstDate:        first,
		LastDate:         last,
		DefaultPartySize: 2,
	}
}
