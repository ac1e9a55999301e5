// Package booking validates table reservation requests from the booking form
// and hands them to storage with a confirmation number.
package booking

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/okian/delhihouse/internal/domain/model"
)

// Party size bounds and the booking horizon.
const (
	MinPartySize = 1
	MaxPartySize = 12
	HorizonDays  = 60
	DateLayout   = "2006-01-02"
)

var timeSlots = []string{
	"17:00", "17:30", "18:00", "18:30", "19:00", "19:30",
	"20:00", "20:30", "21:00", "21:30", "22:00", "22:30",
}

// TimeSlots returns the bookable times, every half hour from 17:00 to 22:30.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

// PartySizes returns 1..12.
func PartySizes() []int {
	out := make([]int, 0, MaxPartySize)
	for i := MinPartySize; i <= MaxPartySize; i++ {
		out = append(out, i)
	}
	return out
}

// DateRange returns the first and last bookable dates for today.
func DateRange(today time.Time) (first, last string) {
	return today.Format(DateLayout), today.AddDate(0, 0, HorizonDays).Format(DateLayout)
}

// Form is the booking form as posted.
type Form struct {
	Venue           string `json:"venue"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int    `json:"party_size"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// Validate checks f against today's bookable range. The returned error is a
// *ValidationError listing each failing field.
func Validate(f Form, today time.Time) error {
	ve := &ValidationError{}
	if strings.TrimSpace(f.FirstName) == "" {
		ve.add("first_name", "is required")
	}
	if strings.TrimSpace(f.LastName) == "" {
		ve.add("last_name", "is required")
	}
	if addr, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil || addr.Address != strings.TrimSpace(f.Email) {
		ve.add("email", "is not a valid address")
	}
	if strings.TrimSpace(f.Phone) == "" {
		ve.add("phone", "is required")
	}
	if f.PartySize < MinPartySize || f.PartySize > MaxPartySize {
		ve.add("party_size", fmt.Sprintf("must be between %d and %d", MinPartySize, MaxPartySize))
	}
	if !validSlot(f.Time) {
		ve.add("time", "is not an available time")
	}

	day, err := time.ParseInLocation(DateLayout, f.Date, today.Location())
	if err != nil {
		ve.add("date", "is not a date")
	} else {
		first := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
		last := first.AddDate(0, 0, HorizonDays)
		if day.Before(first) || day.After(last) {
			ve.add("date", fmt.Sprintf("must be within the next %d days", HorizonDays))
		}
	}
	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}

func validSlot(t string) bool {
	for _, s := range timeSlots {
		if s == t {
			return true
		}
	}
	return false
}

// Confirmation is "DH" followed by the last six digits of the epoch milliseconds.
func Confirmation(now time.Time) string {
	ms := fmt.Sprintf("%06d", now.UnixMilli())
	return "DH" + ms[len(ms)-6:]
}

// Store persists booking requests.
type Store interface {
	CreateBooking(ctx context.Context, b model.BookingRequest) (model.BookingRequest, error)
}

// Service accepts bookings.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a booking service; now defaults to time.Now.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Submit validates f and stores it with a confirmation number.
func (s *Service) Submit(ctx context.Context, f Form) (model.BookingRequest, error) {
	now := s.now()
	if err := Validate(f, now); err != nil {
		return model.BookingRequest{}, err
	}
	req := model.BookingRequest{
		Confirmation: Confirmation(now),
		Venue:        strings.TrimSpace(f.Venue),
		Name:         strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName),
		Email:        strings.TrimSpace(f.Email),
		Phone:        strings.TrimSpace(f.Phone),
		Date:         f.Date,
		Time:         f.Time,
		PartySize:    f.PartySize,
		Notes:        strings.TrimSpace(f.SpecialRequests),
		CreatedAt:    now,
	}
	stored, err := s.store.CreateBooking(ctx, req)
	if err != nil {
		return model.BookingRequest{}, fmt.Errorf("store booking: %w", err)
	}
	return stored, nil
}
