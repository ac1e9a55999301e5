package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/delhihouse/internal/adapters/repository"
	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/config"
	"github.com/okian/delhihouse/internal/domain/reveal"
	"github.com/okian/delhihouse/pkg/metrics"
)

// resetFlags restores flag defaults between executions of the shared rootCmd.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigLoading(t *testing.T) {
	convey.Convey("Given DHC_ environment overrides", t, func() {
		t.Setenv("DHC_ADDR", ":9090")
		t.Setenv("DHC_QUEUE_SIZE", "64")
		t.Setenv("DHC_WORKER_COUNT", "3")
		t.Setenv("DHC_WIDGET__LANG", "fr-FR")

		convey.Convey("Then configuration picks them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			convey.So(cfg.Widget.Lang, convey.ShouldEqual, "fr-FR")
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("DHC_ADDR", " ")

		convey.Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		widgetHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer widgetHost.Close()

		c := config.New()
		c.Widget.BaseURL = widgetHost.URL
		c.CSRFKey = "0123456789abcdef0123456789abcdef"
		svc := service.New(c, service.WithStorage(repository.NewMemoryStore()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		h, err := newHandler(c, svc)
		convey.So(err, convey.ShouldBeNil)

		get := func(path string) int {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec.Code
		}

		convey.Convey("Then the API, docs and pages share one router", func() {
			convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/readyz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/static/css/site.css"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/no-such-page"), convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then admin routes need a session", func() {
			convey.So(get("/api/leads"), convey.ShouldEqual, http.StatusUnauthorized)
		})

		convey.Convey("Then the service metrics updater reads its stats", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})

	convey.Convey("A malformed CSRF key is refused", t, func() {
		c := config.New()
		c.CSRFKey = "short"
		svc := service.New(c, service.WithStorage(repository.NewMemoryStore()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		_, err := newHandler(c, svc)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestOriginHost(t *testing.T) {
	convey.Convey("originHost keeps host and port", t, func() {
		convey.So(originHost("https://delhihouse.co.uk"), convey.ShouldEqual, "delhihouse.co.uk")
		convey.So(originHost("http://localhost:8080/x"), convey.ShouldEqual, "localhost:8080")
		convey.So(originHost("::"), convey.ShouldEqual, "")
	})
}

func TestRevealCommand(t *testing.T) {
	convey.Convey("Given the reveal command with flag geometry", t, func() {
		out, err := execute("reveal",
			"--offset", "3000", "--viewport", "1000",
			"--section", "experience",
			"--geometry", "experience=-700:2000")

		convey.Convey("Then it prints the frame as JSON", func() {
			convey.So(err, convey.ShouldBeNil)
			var frame reveal.Frame
			convey.So(json.Unmarshal([]byte(out), &frame), convey.ShouldBeNil)
			sf, ok := frame.Section("experience")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(sf.Progress, convey.ShouldAlmostEqual, 0.7)
			convey.So(sf.ImageValues["restaurant"], convey.ShouldAlmostEqual, 1.2)
		})
	})

	convey.Convey("Given an unknown section", t, func() {
		_, err := execute("reveal", "--section", "nope", "--geometry", "nope=0:1")

		convey.Convey("Then it fails", func() {
			convey.So(err, convey.ShouldEqual, reveal.ErrUnknownSection)
		})
	})

	convey.Convey("parseGeometry rejects malformed values", t, func() {
		_, _, err := parseGeometry("hero")
		convey.So(err, convey.ShouldNotBeNil)
		_, _, err = parseGeometry("hero=1")
		convey.So(err, convey.ShouldNotBeNil)
		_, _, err = parseGeometry("hero=a:1")
		convey.So(err, convey.ShouldNotBeNil)
		id, r, err := parseGeometry("hero=-20.5:900")
		convey.So(err, convey.ShouldBeNil)
		convey.So(id, convey.ShouldEqual, "hero")
		convey.So(r, convey.ShouldResemble, reveal.Rect{Top: -20.5, Height: 900})
	})
}

func TestUserAddCommand(t *testing.T) {
	convey.Convey("Given a fresh database file", t, func() {
		db := filepath.Join(t.TempDir(), "nested", "site.db")

		convey.Convey("Then useradd stores a bcrypt hash for the admin", func() {
			_, err := execute("useradd", "--db", db, "--email", " Owner@DelhiHouse.co.uk ", "--password", "tandoori-2026")
			convey.So(err, convey.ShouldBeNil)

			store, err := repository.OpenSQLite(context.Background(), db)
			convey.So(err, convey.ShouldBeNil)
			defer store.Close()
			u, err := store.User(context.Background(), "owner@delhihouse.co.uk")
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(u.PasswordHash), convey.ShouldNotEqual, "tandoori-2026")
		})

		convey.Convey("Then a short password is refused", func() {
			_, err := execute("useradd", "--db", db, "--email", "owner@delhihouse.co.uk", "--password", "short")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestConfigureMetrics(t *testing.T) {
	convey.Convey("Given metrics settings from the environment", t, func() {
		t.Setenv("DHC_METRICS__NAMESPACE", "dhc")
		t.Setenv("DHC_METRICS__CONST_LABELS__SITE", "manchester")
		c, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(c.Metrics.Subsystem, convey.ShouldEqual, "site")
		convey.So(c.Metrics.ConstLabels, convey.ShouldResemble, map[string]string{"site": "manchester"})

		convey.Convey("Then the exported series carry the namespace and label", func() {
			configureMetrics(c.Metrics)
			defer configureMetrics(config.New().Metrics)

			metrics.RecordLeadSubmitted()
			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			found := false
			for _, f := range families {
				if f.GetName() == "dhc_site_leads_submitted_total" {
					found = true
					l := f.GetMetric()[0].GetLabel()
					convey.So(len(l), convey.ShouldEqual, 1)
					convey.So(l[0].GetName()+"="+l[0].GetValue(), convey.ShouldEqual, "site=manchester")
				}
			}
			convey.So(found, convey.ShouldBeTrue)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a context that ends quickly", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the system updater returns", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
		})
	})
}
