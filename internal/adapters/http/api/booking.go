package api

import (
	"errors"
	"net/http"

	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/domain/booking"
)

func (s *Server) handleBookingOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.BookingOptions())
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var f booking.Form
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	b, err := s.deps.Book(r.Context(), f)
	var ve *booking.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, b)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "validation_failed",
			Message: "Please check the highlighted fields.",
			Fields:  ve.Fields,
		})
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", errors.New("failed to submit booking"))
	}
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Bookings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "fetch_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}
