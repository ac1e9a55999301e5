// Package api serves the JSON API: contact submissions, reveal frames, the
// reservation widget bridge, bookings and the admin lead endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/repository"
	"github.com/okian/delhihouse/internal/adapters/widget"
	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/domain/booking"
	"github.com/okian/delhihouse/internal/domain/dashboard"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/internal/domain/reveal"
)

const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ContactDependencies
	RevealDependencies
	WidgetDependencies
	BookingDependencies
	LeadDependencies
	StatsProvider
	Ping(ctx context.Context) error
}

type ContactDependencies interface {
	SubmitContact(ctx context.Context, sub model.Submission) (service.ContactResult, error)
}

type RevealDependencies interface {
	RevealBindings() []reveal.Binding
	RevealFrame(req service.FrameRequest) (reveal.Frame, error)
}

type WidgetDependencies interface {
	Widget() widget.Widget
	WidgetAvailability(ctx context.Context) widget.Availability
	RecordWidgetEvent(ctx context.Context, ev service.WidgetEvent) (widget.Outcome, error)
}

type BookingDependencies interface {
	Book(ctx context.Context, f booking.Form) (model.BookingRequest, error)
	BookingOptions() service.BookingOptions
	Bookings(ctx context.Context) ([]model.BookingRequest, error)
}

type LeadDependencies interface {
	Dashboard(ctx context.Context, sess auth.Session) (*dashboard.Board, error)
	Location() *time.Location
	Now() time.Time
}

// StatsProvider reports service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Authenticator signs admins in and out.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, s auth.Session)
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	deps          Dependencies
	auth          Authenticator
	secureCookies bool
}

// NewServer creates the API server.
func NewServer(deps Dependencies, a Authenticator, secureCookies bool) *Server {
	return &Server{deps: deps, auth: a, secureCookies: secureCookies}
}

// Register attaches all API routes to r. The auth middleware must already
// run on r so admin routes can find the session.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	r.Get("/readyz", MetricsMiddleware(s.handleReady, "readyz"))
	r.Get("/stats", MetricsMiddleware(s.handleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/contact", MetricsMiddleware(s.handleContact, "contact"))

		r.Get("/reveal/bindings", MetricsMiddleware(s.handleRevealBindings, "reveal_bindings"))
		r.Post("/reveal/frame", MetricsMiddleware(s.handleRevealFrame, "reveal_frame"))

		r.Get("/widget/config", MetricsMiddleware(s.handleWidgetConfig, "widget_config"))
		r.Post("/widget/events", MetricsMiddleware(s.handleWidgetEvent, "widget_events"))

		r.Get("/booking/options", MetricsMiddleware(s.handleBookingOptions, "booking_options"))
		r.Post("/bookings", MetricsMiddleware(s.handleBook, "bookings"))

		r.Post("/auth/login", MetricsMiddleware(s.handleLogin, "login"))
		r.Post("/auth/logout", MetricsMiddleware(s.handleLogout, "logout"))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession)
			r.Get("/leads", MetricsMiddleware(s.handleListLeads, "leads"))
			r.Get("/leads/stats", MetricsMiddleware(s.handleLeadStats, "lead_stats"))
			r.Get("/leads/{id}", MetricsMiddleware(s.handleGetLead, "lead"))
			r.Delete("/leads/{id}", MetricsMiddleware(s.handleDeleteLead, "lead_delete"))
			r.Get("/bookings", MetricsMiddleware(s.handleListBookings, "bookings_list"))
		})
	})
}

type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, dashboard.ErrUnknownLead)
}
