package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/domain/dashboard"
	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
)

// leadResponse is a lead with its timestamp formatted for display.
type leadResponse struct {
	model.Lead
	Date string `json:"date"`
}

type leadsResponse struct {
	User        string         `json:"user"`
	Leads       []leadResponse `json:"leads"`
	Selected    *leadResponse  `json:"selected,omitempty"`
	Deleting    string         `json:"deleting,omitempty"`
	FetchFailed bool           `json:"fetch_failed"`
	Stats       lead.Stats     `json:"stats"`
	FetchedAt   time.Time      `json:"fetched_at"`
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) (*dashboard.Board, bool) {
	sess, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrNoSession)
		return nil, false
	}
	b, err := s.deps.Dashboard(r.Context(), sess)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return nil, false
	}
	return b, true
}

func (s *Server) toLead(l model.Lead) leadResponse {
	return leadResponse{Lead: l, Date: lead.FormatDate(l.Timestamp, s.deps.Location())}
}

func (s *Server) toLeads(v dashboard.View) leadsResponse {
	out := leadsResponse{
		User:        v.User,
		Leads:       make([]leadResponse, 0, len(v.Leads)),
		Deleting:    v.Deleting,
		FetchFailed: v.FetchFailed,
		Stats:       v.Stats,
		FetchedAt:   v.FetchedAt,
	}
	for _, l := range v.Leads {
		out.Leads = append(out.Leads, s.toLead(l))
	}
	if v.Selected != nil {
		sel := s.toLead(*v.Selected)
		out.Selected = &sel
	}
	return out
}

// handleListLeads returns the cached leads of the session's dashboard;
// refresh=1 refetches the whole collection first. A failed fetch answers 200
// with an empty list and fetch_failed set.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	b, ok := s.board(w, r)
	if !ok {
		return
	}
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		err := b.Refresh(r.Context())
		var fe *dashboard.FetchError
		if err != nil && !errors.As(err, &fe) && !errors.Is(err, dashboard.ErrSuperseded) {
			writeLeadError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.toLeads(b.View()))
}

func (s *Server) handleLeadStats(w http.ResponseWriter, r *http.Request) {
	b, ok := s.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b.Stats(s.deps.Now()))
}

// handleGetLead opens the detail view of a lead in the cached list.
func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	b, ok := s.board(w, r)
	if !ok {
		return
	}
	l, err := b.Select(chi.URLParam(r, "id"))
	if err != nil {
		writeLeadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toLead(l))
}

// handleDeleteLead deletes a lead; confirm=true is required.
func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	b, ok := s.board(w, r)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := b.Delete(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		writeLeadError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeLeadError(w http.ResponseWriter, err error) {
	var de *dashboard.DeleteError
	switch {
	case errors.Is(err, dashboard.ErrNotConfirmed):
		writeError(w, http.StatusBadRequest, "not_confirmed", err)
	case errors.Is(err, dashboard.ErrDeleteInFlight):
		writeError(w, http.StatusConflict, "delete_in_flight", err)
	case errors.Is(err, dashboard.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.As(err, &de):
		writeError(w, http.StatusInternalServerError, "delete_failed", errors.New("failed to delete lead"))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
