package widget_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/delhihouse/internal/adapters/widget"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConfig(t *testing.T) {
	Convey("Given the default two-venue config", t, func() {
		cfg := widget.DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("The loader URL follows the provider contract", func() {
			So(cfg.LoaderURL(), ShouldEqual,
				"https://www.opentable.co.uk/widget/reservation/loader?rid=227751&rid=369630&type=multi&theme=standard&color=1&dark=false&iframe=true&domain=couk&lang=en-GB&newtab=false&ot_source=Restaurant%20website&cfe=true")
		})

		Convey("A single venue uses the standard type", func() {
			cfg.RestaurantIDs = []string{"227751"}
			So(cfg.LoaderURL(), ShouldContainSubstring, "rid=227751&type=standard&")
		})

		Convey("Fallback links point at the direct booking page", func() {
			So(cfg.FallbackURL("227751"), ShouldEqual, "https://www.opentable.co.uk/restref/client/?rid=227751")
			w := widget.Widget{Config: cfg, Venues: map[string]string{"227751": "Manchester"}}
			links := w.Fallback()
			So(len(links), ShouldEqual, 2)
			So(links[0].Label, ShouldEqual, "Book Manchester")
			So(links[1].Label, ShouldEqual, "Book online")
		})

		Convey("The frame is sandboxed and carries the timeout", func() {
			f := widget.Widget{Config: cfg}.Frame()
			So(f.Sandbox, ShouldContainSubstring, "allow-scripts")
			So(f.TimeoutMS, ShouldEqual, 10000)
			So(f.Src, ShouldEqual, cfg.LoaderURL())
		})

		Convey("Invalid configs are rejected", func() {
			cfg.RestaurantIDs = nil
			So(errors.Is(cfg.Validate(), widget.ErrInvalidConfig), ShouldBeTrue)
			cfg.RestaurantIDs = []string{"1&x=2"}
			So(errors.Is(cfg.Validate(), widget.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestParseMessage(t *testing.T) {
	origin := "https://www.opentable.co.uk"

	Convey("Messages from the provider origin are decoded", t, func() {
		o, err := widget.ParseMessage(origin, origin, []byte(`{"type":"OPENTABLE_LOADED"}`))
		So(err, ShouldBeNil)
		So(o, ShouldEqual, widget.Loaded)

		o, err = widget.ParseMessage(origin, origin, []byte(`{"type":"OPENTABLE_ERROR"}`))
		So(err, ShouldBeNil)
		So(o, ShouldEqual, widget.Failed)
	})

	Convey("Messages from other origins are refused", t, func() {
		_, err := widget.ParseMessage("https://evil.example", origin, []byte(`{"type":"OPENTABLE_LOADED"}`))
		So(errors.Is(err, widget.ErrForeignOrigin), ShouldBeTrue)
	})

	Convey("Unknown or malformed messages are refused", t, func() {
		_, err := widget.ParseMessage(origin, origin, []byte(`{"type":"HELLO"}`))
		So(errors.Is(err, widget.ErrUnknownMessage), ShouldBeTrue)
		_, err = widget.ParseMessage(origin, origin, []byte(`nope`))
		So(errors.Is(err, widget.ErrUnknownMessage), ShouldBeTrue)
	})
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loader whose timer fires before any signal", t, func() {
		timer := make(chan time.Time, 1)
		var fallbacks int32
		l := widget.NewLoader(10*time.Second,
			widget.WithAfter(func(time.Duration) <-chan time.Time { return timer }),
			widget.OnFallback(func(widget.Outcome) { atomic.AddInt32(&fallbacks, 1) }))
		timer <- time.Now()

		Convey("The fallback is shown exactly once", func() {
			So(l.Wait(ctx), ShouldEqual, widget.TimedOut)
			timer <- time.Now()
			l.Failed()
			So(l.Wait(ctx), ShouldEqual, widget.TimedOut)
			So(atomic.LoadInt32(&fallbacks), ShouldEqual, 1)
		})
	})

	Convey("Given a loader that receives the loaded signal", t, func() {
		var fallbacks int32
		var resolved widget.Outcome
		l := widget.NewLoader(time.Hour,
			widget.OnFallback(func(widget.Outcome) { atomic.AddInt32(&fallbacks, 1) }),
			widget.OnResolved(func(o widget.Outcome) { resolved = o }))
		l.Loaded()

		Convey("No fallback is shown", func() {
			So(l.Wait(ctx), ShouldEqual, widget.Loaded)
			So(resolved, ShouldEqual, widget.Loaded)
			So(atomic.LoadInt32(&fallbacks), ShouldEqual, 0)
			<-l.Done()
		})
	})

	Convey("Given a loader that receives the error signal", t, func() {
		var fallbacks int32
		l := widget.NewLoader(time.Hour, widget.OnFallback(func(widget.Outcome) { atomic.AddInt32(&fallbacks, 1) }))
		l.Failed()
		l.Failed()

		Convey("The fallback is shown once", func() {
			So(l.Wait(ctx), ShouldEqual, widget.Failed)
			So(atomic.LoadInt32(&fallbacks), ShouldEqual, 1)
		})
	})

	Convey("A canceled wait resolves without fallback", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		l := widget.NewLoader(time.Hour)
		So(l.Wait(cctx), ShouldEqual, widget.Canceled)
		So(widget.Canceled.NeedsFallback(), ShouldBeFalse)
	})
}

func TestProber(t *testing.T) {
	Convey("Given a reachable widget host", t, func() {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/widget/reservation/loader" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		cfg := widget.DefaultConfig()
		cfg.BaseURL = srv.URL
		clock := newClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		outcomes := make(chan widget.Outcome, 4)
		p := widget.NewProber(cfg,
			widget.WithHTTPClient(srv.Client()),
			widget.WithTTL(time.Minute),
			widget.WithProbeClock(clock.now),
			widget.WithObserver(func(o widget.Outcome) { outcomes <- o }))
		defer p.Close()

		Convey("The first check loads the host and the result is cached for the TTL", func() {
			first := p.Check(context.Background())
			So(first.Available, ShouldBeTrue)
			So(<-outcomes, ShouldEqual, widget.Loaded)
			So(p.Check(context.Background()), ShouldResemble, first)
			So(atomic.LoadInt32(&hits), ShouldEqual, 1)

			Convey("A stale result is served while a background refresh runs", func() {
				clock.advance(2 * time.Minute)
				So(p.Check(context.Background()), ShouldResemble, first)

				select {
				case o := <-outcomes:
					So(o, ShouldEqual, widget.Loaded)
				case <-time.After(5 * time.Second):
					So("background probe never finished", ShouldBeEmpty)
				}
				So(atomic.LoadInt32(&hits), ShouldEqual, 2)
				So(p.Last().CheckedAt.After(first.CheckedAt), ShouldBeTrue)
			})
		})
	})

	Convey("Given a cached result and a host that has become slow", t, func() {
		var slow, hits int32
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			if atomic.LoadInt32(&slow) == 1 {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		defer close(release)

		cfg := widget.DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.LoadTimeout = 2 * time.Second
		clock := newClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		p := widget.NewProber(cfg,
			widget.WithHTTPClient(srv.Client()),
			widget.WithTTL(time.Minute),
			widget.WithProbeClock(clock.now))
		defer p.Close()

		So(p.Check(context.Background()).Available, ShouldBeTrue)
		atomic.StoreInt32(&slow, 1)
		clock.advance(2 * time.Minute)

		Convey("Concurrent checks return at once and share one load", func() {
			var wg sync.WaitGroup
			took := make([]time.Duration, 3)
			results := make([]widget.Availability, 3)
			for i := range took {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					start := time.Now()
					results[i] = p.Check(context.Background())
					took[i] = time.Since(start)
				}(i)
			}
			wg.Wait()

			for i := range took {
				So(took[i], ShouldBeLessThan, 500*time.Millisecond)
				So(results[i].Available, ShouldBeTrue)
			}
			So(atomic.LoadInt32(&hits), ShouldBeLessThanOrEqualTo, 2)
		})
	})

	Convey("Given a failing widget host", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		cfg := widget.DefaultConfig()
		cfg.BaseURL = srv.URL
		p := widget.NewProber(cfg, widget.WithHTTPClient(srv.Client()))
		defer p.Close()

		Convey("It is unavailable", func() {
			a := p.Check(context.Background())
			So(a.Available, ShouldBeFalse)
			So(a.Outcome, ShouldEqual, widget.Failed)
			So(p.Last().Outcome, ShouldEqual, widget.Failed)
		})
	})

	Convey("Given a widget host slower than the load timeout", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		cfg := widget.DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.LoadTimeout = 20 * time.Millisecond
		p := widget.NewProber(cfg, widget.WithHTTPClient(srv.Client()))
		defer p.Close()

		Convey("The check times out", func() {
			So(p.Check(context.Background()).Outcome, ShouldEqual, widget.TimedOut)
		})
	})

	Convey("A closed prober stays idle", t, func() {
		p := widget.NewProber(widget.DefaultConfig())
		p.Close()
		p.Warm()
		So(p.Check(context.Background()).Available, ShouldBeFalse)
		So(p.Last().CheckedAt.IsZero(), ShouldBeTrue)
	})
}

// clock is a settable time source safe for the prober's background probes.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
