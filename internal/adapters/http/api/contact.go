package api

import (
	"errors"
	"net/http"

	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
)

type ackResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// handleContact accepts a contact form. A repeated token is acknowledged
// with 200 and status "duplicate"; a fresh one with 202.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	res, err := s.deps.SubmitContact(r.Context(), sub)
	if err != nil {
		writeContactError(w, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Token: res.Token})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Token: res.Token})
}

func writeContactError(w http.ResponseWriter, err error) {
	var ve *lead.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "validation_failed",
			Message: "Please check the highlighted fields.",
			Fields:  ve.Fields,
		})
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", errors.New("we are busy, please try again in a moment"))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", errors.New("failed to send message"))
	}
}
