package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func newAuth(opts ...auth.Option) (*auth.Authenticator, *repository.MemoryStore) {
	users := repository.NewMemoryStore()
	So(auth.CreateUser(context.Background(), users, "admin@delhihouse.co.uk", "tandoori-2026"), ShouldBeNil)
	a, err := auth.New(users, secret, opts...)
	So(err, ShouldBeNil)
	return a, users
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	Convey("Given an authenticator with one admin", t, func() {
		a, _ := newAuth()

		Convey("Correct credentials produce a verifiable session", func() {
			s, err := a.SignIn(ctx, " Admin@DelhiHouse.co.uk ", "tandoori-2026")
			So(err, ShouldBeNil)
			So(s.Email, ShouldEqual, "admin@delhihouse.co.uk")
			So(s.Token, ShouldNotBeEmpty)

			got, err := a.Verify(ctx, s.Token)
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, s.ID)
		})

		Convey("Each failure maps to its code and copy", func() {
			_, err := a.SignIn(ctx, "", "")
			So(auth.CodeOf(err), ShouldEqual, auth.CodeInvalidCredential)
			So(auth.Message(err), ShouldEqual, "Invalid email or password. Please try again.")

			_, err = a.SignIn(ctx, "chef@delhihouse.co.uk", "whatever1")
			So(auth.CodeOf(err), ShouldEqual, auth.CodeUserNotFound)
			So(auth.Message(err), ShouldEqual, "No account found with this email.")

			_, err = a.SignIn(ctx, "admin@delhihouse.co.uk", "biryani-2026")
			So(auth.CodeOf(err), ShouldEqual, auth.CodeWrongPassword)
			So(auth.Message(err), ShouldEqual, "Incorrect password. Please try again.")
		})

		Convey("Unknown errors fall back to the generic copy", func() {
			So(auth.Message(errors.New("boom")), ShouldEqual, auth.FallbackMessage)
			So(auth.Message(&auth.AuthError{Code: auth.CodeOther}), ShouldEqual, "Failed to login. Please try again.")
		})
	})

	Convey("Given an authenticator allowing two attempts", t, func() {
		a, _ := newAuth(auth.WithAttemptLimit(2, 2))

		Convey("The third rapid attempt is throttled", func() {
			_, err := a.SignIn(ctx, "admin@delhihouse.co.uk", "nope-nope")
			So(auth.CodeOf(err), ShouldEqual, auth.CodeWrongPassword)
			_, err = a.SignIn(ctx, "admin@delhihouse.co.uk", "nope-nope")
			So(auth.CodeOf(err), ShouldEqual, auth.CodeWrongPassword)
			_, err = a.SignIn(ctx, "admin@delhihouse.co.uk", "tandoori-2026")
			So(auth.CodeOf(err), ShouldEqual, auth.CodeTooManyRequests)
			So(auth.Message(err), ShouldEqual, "Too many failed attempts. Please try again later.")
		})
	})

	Convey("A short secret is rejected", t, func() {
		_, err := auth.New(repository.NewMemoryStore(), []byte("short"))
		So(err, ShouldEqual, auth.ErrWeakSecret)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a signed-in admin", t, func() {
		now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
		a, _ := newAuth(auth.WithTTL(time.Hour), auth.WithClock(func() time.Time { return now }))

		var events []bool
		cancel := a.OnAuthStateChanged(func(_ auth.Session, signedIn bool) { events = append(events, signedIn) })
		defer cancel()

		s, err := a.SignIn(ctx, "admin@delhihouse.co.uk", "tandoori-2026")
		So(err, ShouldBeNil)

		Convey("Sign-out revokes the token and notifies listeners", func() {
			a.SignOut(ctx, s)
			_, err := a.Verify(ctx, s.Token)
			So(err, ShouldEqual, auth.ErrRevoked)
			So(events, ShouldResemble, []bool{true, false})
		})

		Convey("Expired tokens are invalid", func() {
			now = now.Add(2 * time.Hour)
			_, err := a.Verify(ctx, s.Token)
			So(errors.Is(err, auth.ErrInvalidSession), ShouldBeTrue)
		})

		Convey("Tampered tokens are invalid", func() {
			_, err := a.Verify(ctx, s.Token+"x")
			So(errors.Is(err, auth.ErrInvalidSession), ShouldBeTrue)
		})
	})
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()

	Convey("Given the session middleware in front of a protected handler", t, func() {
		a, _ := newAuth()
		protected := a.Middleware(auth.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := auth.SessionFrom(r.Context())
			_, _ = w.Write([]byte(s.Email))
		})))

		Convey("Anonymous page requests are redirected to the login page", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
			So(rec.Code, ShouldEqual, http.StatusSeeOther)
			So(rec.Header().Get("Location"), ShouldEqual, "/login")
		})

		Convey("Anonymous API requests get 401", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(rec.Body.String(), ShouldContainSubstring, "unauthorized")
		})

		Convey("A session cookie grants access", func() {
			s, err := a.SignIn(ctx, "admin@delhihouse.co.uk", "tandoori-2026")
			So(err, ShouldBeNil)
			cookieRec := httptest.NewRecorder()
			auth.SetCookie(cookieRec, s, false)

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			for _, c := range cookieRec.Result().Cookies() {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "admin@delhihouse.co.uk")
		})

		Convey("A bearer token grants API access", func() {
			s, _ := a.SignIn(ctx, "admin@delhihouse.co.uk", "tandoori-2026")
			req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
			req.Header.Set("Authorization", "Bearer "+s.Token)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("A bad cookie is cleared", func() {
			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusSeeOther)
			So(rec.Header().Get("Set-Cookie"), ShouldContainSubstring, auth.CookieName+"=;")
		})
	})
}
