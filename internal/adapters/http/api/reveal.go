package api

import (
	"errors"
	"net/http"

	service "github.com/okian/delhihouse/internal/app"
)

func (s *Server) handleRevealBindings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bindings": s.deps.RevealBindings()})
}

// handleRevealFrame computes the reveal state for a posted scroll sample and
// section geometry.
func (s *Server) handleRevealFrame(w http.ResponseWriter, r *http.Request) {
	var req service.FrameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if req.Sample.ViewportHeight <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_sample", errors.New("viewport_height must be positive"))
		return
	}
	frame, err := s.deps.RevealFrame(req)
	if errors.Is(err, service.ErrUnknownSection) {
		writeError(w, http.StatusNotFound, "unknown_section", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}
