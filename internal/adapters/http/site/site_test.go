package site_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/http/site"
	"github.com/okian/delhihouse/internal/adapters/repository"
	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/config"
	"github.com/okian/delhihouse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	now       = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	csrfRe    = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
	formTokRe = regexp.MustCompile(`name="token" value="([^"]+)"`)
)

// browser keeps cookies between requests to the handler.
type browser struct {
	t       http.Handler
	cookies map[string]*http.Cookie
	widget  *httptest.Server
	svc     *service.Service
	store   *repository.MemoryStore
}

func newBrowser(widgetStatus int, opts ...site.HandlerOption) *browser {
	widgetHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(widgetStatus)
	}))
	cfg := config.New()
	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	cfg.TimeZone = "Europe/London"
	cfg.Widget.BaseURL = widgetHost.URL
	store := repository.NewMemoryStore()
	svc := service.New(cfg, service.WithStorage(store), service.WithClock(func() time.Time { return now }))
	So(svc.Start(context.Background()), ShouldBeNil)
	So(auth.CreateUser(context.Background(), store, "admin@delhihouse.co.uk", "tandoori-2026"), ShouldBeNil)

	opts = append([]site.HandlerOption{site.WithCSRFKey([]byte("abcdefghijklmnopqrstuvwxyz012345"))}, opts...)
	h, err := site.New(svc, svc.Auth(), opts...)
	So(err, ShouldBeNil)
	r := chi.NewRouter()
	r.Use(svc.Auth().Middleware)
	h.Register(r)
	return &browser{t: r, cookies: map[string]*http.Cookie{}, widget: widgetHost, svc: svc, store: store}
}

func (b *browser) close() {
	b.svc.Stop()
	b.widget.Close()
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.t.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.send(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

// csrf loads page and returns the form's CSRF token.
func (b *browser) csrf(page string) string {
	rec := b.get(page)
	So(rec.Code, ShouldEqual, http.StatusOK)
	m := csrfRe.FindStringSubmatch(rec.Body.String())
	So(m, ShouldHaveLength, 2)
	return m[1]
}

func (b *browser) signIn() {
	rec := b.post("/login", url.Values{
		"csrf_token": {b.csrf("/login")},
		"email":      {"admin@delhihouse.co.uk"},
		"password":   {"tandoori-2026"},
	})
	So(rec.Code, ShouldEqual, http.StatusSeeOther)
	So(rec.Header().Get("Location"), ShouldEqual, "/dashboard")
}

func TestPublicPages(t *testing.T) {
	Convey("Given the site", t, func() {
		b := newBrowser(http.StatusOK)
		defer b.close()

		Convey("The home page carries the reveal markup", func() {
			rec := b.get("/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			body := rec.Body.String()
			So(body, ShouldContainSubstring, `data-reveal-section="experience"`)
			So(body, ShouldContainSubstring, `data-reveal-mode="self-height"`)
			So(body, ShouldContainSubstring, `data-reveal-image="restaurant"`)
			So(body, ShouldContainSubstring, `data-vanish-threshold="0.35"`)
			So(body, ShouldContainSubstring, `data-reveal-word="0" data-reveal-start="0"`)
			So(body, ShouldContainSubstring, "VISIT US")
		})

		Convey("The about page renders the markdown story", func() {
			body := b.get("/about").Body.String()
			So(body, ShouldContainSubstring, "<h2>A family table</h2>")
			So(body, ShouldContainSubstring, "<strong>cooked at home first</strong>")
			So(body, ShouldContainSubstring, `data-reveal-section="about-beginning"`)
		})

		Convey("Static assets are served", func() {
			So(b.get("/static/css/site.css").Code, ShouldEqual, http.StatusOK)
			So(b.get("/static/js/reveal.js").Code, ShouldEqual, http.StatusOK)
		})

		Convey("The dashboard redirects anonymous visitors to sign in", func() {
			rec := b.get("/dashboard")
			So(rec.Code, ShouldEqual, http.StatusSeeOther)
			So(rec.Header().Get("Location"), ShouldEqual, "/login")
		})
	})
}

func TestRevealEngine(t *testing.T) {
	Convey("Given a site with the browser reveal engine built", t, func() {
		engine := fstest.MapFS{
			"reveal.wasm":  {Data: []byte("\x00asm\x01\x00\x00\x00")},
			"wasm_exec.js": {Data: []byte("globalThis.Go = class {};")},
		}
		b := newBrowser(http.StatusOK, site.WithRevealEngine(engine))
		defer b.close()

		Convey("Pages load the engine before the reveal runtime", func() {
			body := b.get("/").Body.String()
			So(body, ShouldContainSubstring, `data-reveal-engine="/static/wasm/reveal.wasm"`)
			loader := strings.Index(body, `src="/static/wasm/wasm_exec.js"`)
			runtime := strings.Index(body, `src="/static/js/reveal.js"`)
			So(loader, ShouldBeGreaterThan, 0)
			So(loader, ShouldBeLessThan, runtime)
		})

		Convey("The engine is served as wasm", func() {
			rec := b.get("/static/wasm/reveal.wasm")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "application/wasm")
			So(b.get("/static/wasm/wasm_exec.js").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a site without an engine build", t, func() {
		b := newBrowser(http.StatusOK, site.WithRevealEngine(fstest.MapFS{}))
		defer b.close()

		Convey("Pages use the frame API only", func() {
			body := b.get("/").Body.String()
			So(body, ShouldNotContainSubstring, "data-reveal-engine")
			So(body, ShouldNotContainSubstring, "wasm_exec.js")
			So(body, ShouldContainSubstring, `src="/static/js/reveal.js"`)
			So(b.get("/static/wasm/reveal.wasm").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestContactForm(t *testing.T) {
	Convey("Given the contact page", t, func() {
		b := newBrowser(http.StatusOK)
		defer b.close()
		rec := b.get("/contact")
		So(rec.Code, ShouldEqual, http.StatusOK)
		token := csrfRe.FindStringSubmatch(rec.Body.String())[1]
		formToken := formTokRe.FindStringSubmatch(rec.Body.String())[1]

		form := url.Values{
			"csrf_token": {token},
			"token":      {formToken},
			"name":       {"Asha Patel"},
			"email":      {"asha@example.com"},
			"phone":      {"+44 161 555 0101"},
			"message":    {"Do you host birthdays?"},
		}

		Convey("A valid form redirects to the thank-you notice", func() {
			rec := b.post("/contact", form)
			So(rec.Code, ShouldEqual, http.StatusSeeOther)
			So(rec.Header().Get("Location"), ShouldEqual, "/contact?sent=1")
			So(b.get("/contact?sent=1").Body.String(), ShouldContainSubstring, "Your message has been sent")

			Convey("Posting the same form again is not an error", func() {
				So(b.post("/contact", form).Code, ShouldEqual, http.StatusSeeOther)
			})
		})

		Convey("Invalid fields are shown next to the inputs", func() {
			form.Set("email", "not-an-email")
			rec := b.post("/contact", form)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldContainSubstring, `class="field invalid"`)
			So(rec.Body.String(), ShouldContainSubstring, "Asha Patel")
		})

		Convey("A post without the CSRF token is refused", func() {
			form.Del("csrf_token")
			So(b.post("/contact", form).Code, ShouldEqual, http.StatusForbidden)
		})
	})
}

func TestReservations(t *testing.T) {
	Convey("Given a reachable booking widget", t, func() {
		b := newBrowser(http.StatusOK)
		defer b.close()

		Convey("The page embeds the sandboxed iframe with hidden fallback links", func() {
			body := b.get("/reservations").Body.String()
			So(body, ShouldContainSubstring, "<iframe")
			So(body, ShouldContainSubstring, `sandbox="allow-scripts`)
			So(body, ShouldContainSubstring, `class="widget-fallback" hidden`)
			So(body, ShouldContainSubstring, "Book Manchester")
		})

		Convey("A booking request shows its confirmation number", func() {
			rec := b.post("/reservations", url.Values{
				"csrf_token": {b.csrf("/reservations")},
				"venue":      {"Liverpool"},
				"date":       {"2026-06-20"},
				"time":       {"20:00"},
				"party_size": {"4"},
				"first_name": {"Ravi"},
				"last_name":  {"Shah"},
				"email":      {"ravi@example.com"},
				"phone":      {"07700 900123"},
			})
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "Your confirmation number is <strong>DH")
		})

		Convey("An out-of-range date is reported", func() {
			rec := b.post("/reservations", url.Values{
				"csrf_token": {b.csrf("/reservations")},
				"venue":      {"Liverpool"},
				"date":       {"2027-06-20"},
				"time":       {"20:00"},
				"party_size": {"4"},
				"first_name": {"Ravi"},
				"last_name":  {"Shah"},
				"email":      {"ravi@example.com"},
				"phone":      {"07700 900123"},
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given the widget bridge script", t, func() {
		b := newBrowser(http.StatusOK)
		defer b.close()
		js := b.get("/static/js/widget.js").Body.String()

		Convey("Timeouts and provider errors unhide the fallback without waiting on the beacon", func() {
			So(js, ShouldContainSubstring, `settle({ timed_out: true }, true)`)
			So(js, ShouldContainSubstring, `data.type === "OPENTABLE_ERROR")`)
			settle := js[strings.Index(js, "function settle"):]
			settle = settle[:strings.Index(settle, "\n  }\n")]
			So(settle, ShouldContainSubstring, "if (settled) return;")
			So(strings.Index(settle, "fallback.hidden = false"), ShouldBeLessThan, strings.Index(settle, "report(event)"))
			So(js, ShouldNotContainSubstring, "res.fallback")
		})
	})

	Convey("Given a failing booking widget", t, func() {
		b := newBrowser(http.StatusBadGateway)
		defer b.close()

		Convey("Only the fallback links are rendered", func() {
			body := b.get("/reservations").Body.String()
			So(body, ShouldNotContainSubstring, "<iframe")
			So(body, ShouldContainSubstring, "Book Liverpool")
		})
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a signed-in admin and one lead", t, func() {
		b := newBrowser(http.StatusOK)
		defer b.close()
		ts := now.Add(-2 * time.Hour)
		l, err := b.store.Create(ctx, model.Lead{Name: "Meera Joshi", Email: "meera@example.com", Phone: "0151 555 0199", Message: "Private dining for 20?", Timestamp: &ts})
		So(err, ShouldBeNil)
		b.signIn()

		Convey("The dashboard lists the lead with its stats", func() {
			body := b.get("/dashboard").Body.String()
			So(body, ShouldContainSubstring, "Meera Joshi")
			So(body, ShouldContainSubstring, "01 Jun 2026, 11:00")
			So(body, ShouldContainSubstring, "Signed in as admin@delhihouse.co.uk")
		})

		Convey("Selecting the lead opens its detail", func() {
			body := b.get("/dashboard?lead=" + l.ID).Body.String()
			So(body, ShouldContainSubstring, "Private dining for 20?")
		})

		Convey("Deleting asks for confirmation first", func() {
			rec := b.get("/dashboard/leads/" + l.ID + "/delete")
			So(rec.Body.String(), ShouldContainSubstring, "Delete this lead?")
			token := csrfRe.FindStringSubmatch(rec.Body.String())[1]

			rec = b.post("/dashboard/leads/"+l.ID+"/delete", url.Values{"csrf_token": {token}})
			So(rec.Header().Get("Location"), ShouldEqual, "/dashboard/leads/"+l.ID+"/delete")

			rec = b.post("/dashboard/leads/"+l.ID+"/delete", url.Values{"csrf_token": {token}, "confirm": {"yes"}})
			So(rec.Header().Get("Location"), ShouldEqual, "/dashboard?notice=deleted")

			body := b.get("/dashboard?notice=deleted").Body.String()
			So(body, ShouldContainSubstring, "Lead deleted.")
			So(body, ShouldContainSubstring, "No leads yet.")
		})

		Convey("Signing out ends the session", func() {
			rec := b.post("/logout", url.Values{"csrf_token": {b.csrf("/dashboard")}})
			So(rec.Header().Get("Location"), ShouldEqual, "/login")
			So(b.get("/dashboard").Code, ShouldEqual, http.StatusSeeOther)
		})
	})

	Convey("A wrong password keeps the admin on the sign-in page", t, func() {
		b := newBrowser(http.StatusOK)
		defer b.close()
		rec := b.post("/login", url.Values{
			"csrf_token": {b.csrf("/login")},
			"email":      {"admin@delhihouse.co.uk"},
			"password":   {"wrong-pass"},
		})
		So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		So(rec.Body.String(), ShouldContainSubstring, "Incorrect password. Please try again.")
	})
}
