// Package site renders the public pages and the admin dashboard.
package site

import (
	"context"
	"crypto/rand"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	g "maragu.dev/gomponents"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/widget"
	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/content"
	"github.com/okian/delhihouse/internal/domain/booking"
	"github.com/okian/delhihouse/internal/domain/dashboard"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/internal/domain/reveal"
	"github.com/okian/delhihouse/pkg/logger"
)

//go:embed static
var staticFS embed.FS

const csrfField = "csrf_token"

// Dependencies the pages read from.
type Dependencies interface {
	Content() *content.Content
	RevealBindings() []reveal.Binding
	Widget() widget.Widget
	WidgetAvailability(ctx context.Context) widget.Availability
	BookingOptions() service.BookingOptions
	Book(ctx context.Context, f booking.Form) (model.BookingRequest, error)
	SubmitContact(ctx context.Context, sub model.Submission) (service.ContactResult, error)
	Dashboard(ctx context.Context, sess auth.Session) (*dashboard.Board, error)
	Bookings(ctx context.Context) ([]model.BookingRequest, error)
	Location() *time.Location
	Now() time.Time
}

// Authenticator signs admins in and out.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, s auth.Session)
}

// Handler serves the HTML pages.
type Handler struct {
	deps    Dependencies
	auth    Authenticator
	secure  bool
	csrfKey []byte
	trusted []string
	logger  logger.Logger
	md      goldmark.Markdown

	engine  fs.FS
	hasWasm bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCSRFKey sets the 32-byte key authenticating form tokens.
func WithCSRFKey(key []byte) HandlerOption {
	return func(h *Handler) { h.csrfKey = key }
}

// WithSecureCookies marks cookies Secure and enforces same-origin referers.
func WithSecureCookies(secure bool) HandlerOption {
	return func(h *Handler) { h.secure = secure }
}

// WithTrustedOrigins lists extra hosts allowed to post forms.
func WithTrustedOrigins(origins ...string) HandlerOption {
	return func(h *Handler) { h.trusted = origins }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates the page handler. Without a CSRF key a random one is used,
// which invalidates open forms on restart.
func New(deps Dependencies, a Authenticator, opts ...HandlerOption) (*Handler, error) {
	h := &Handler{
		deps:   deps,
		auth:   a,
		logger: logger.GetOr(logger.Nop()).Named("site"),
		md: goldmark.New(
			goldmark.WithExtensions(extension.Typographer),
			goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
		),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.engine == nil {
		h.engine = embeddedEngine()
	}
	h.hasWasm = hasEngine(h.engine)
	if len(h.csrfKey) == 0 {
		h.csrfKey = make([]byte, 32)
		if _, err := rand.Read(h.csrfKey); err != nil {
			return nil, err
		}
		h.logger.Warn(context.Background(), "no csrf key configured, using a random one")
	}
	if len(h.csrfKey) != 32 {
		return nil, ErrCSRFKey
	}
	return h, nil
}

// Register attaches the pages and static assets to r. The auth middleware
// must already run on r.
func (h *Handler) Register(r chi.Router) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	if h.hasWasm {
		r.Handle(enginePrefix+"*", http.StripPrefix(enginePrefix, http.FileServer(http.FS(h.engine))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.protect())

		r.Get("/", h.home)
		r.Get("/about", h.about)
		r.Get("/contact", h.contactForm)
		r.Post("/contact", h.contactSubmit)
		r.Get("/reservations", h.reservations)
		r.Post("/reservations", h.reservationSubmit)
		r.Get("/login", h.loginForm)
		r.Post("/login", h.loginSubmit)
		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession)
			r.Get("/dashboard", h.dashboard)
			r.Get("/dashboard/leads/{id}/delete", h.confirmDelete)
			r.Post("/dashboard/leads/{id}/delete", h.deleteLead)
			r.Get("/dashboard/bookings", h.bookings)
		})
	})
}

// protect enables CSRF checks. Plain HTTP deployments skip the HTTPS-only
// referer check.
func (h *Handler) protect() func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(h.secure),
		csrf.Path("/"),
		csrf.FieldName(csrfField),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.ErrorHandler(http.HandlerFunc(h.csrfFailed)),
	}
	if len(h.trusted) > 0 {
		opts = append(opts, csrf.TrustedOrigins(h.trusted))
	}
	protect := csrf.Protect(h.csrfKey, opts...)
	return func(next http.Handler) http.Handler {
		p := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !h.secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			p.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) csrfFailed(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn(r.Context(), "csrf check failed",
		logger.String("path", r.URL.Path), logger.Error(csrf.FailureReason(r)))
	h.render(w, r, http.StatusForbidden, h.layout(r, "Form expired",
		messagePage("This form has expired", "Please go back, reload the page and try again.")))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, n g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := n.Render(w); err != nil {
		h.logger.Error(r.Context(), "failed to render page", logger.String("path", r.URL.Path), logger.Error(err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "page failed", logger.String("path", r.URL.Path), logger.Error(err))
	h.render(w, r, http.StatusInternalServerError, h.layout(r, "Something went wrong",
		messagePage("Something went wrong", "Please try again in a moment.")))
}
