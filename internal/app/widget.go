package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/delhihouse/internal/adapters/widget"
	"github.com/okian/delhihouse/internal/config"
	"github.com/okian/delhihouse/pkg/logger"
	"github.com/okian/delhihouse/pkg/metrics"
)

// WidgetEvent is a beacon from the reservations page: either a provider
// message relayed as received, or a client-side load timeout.
type WidgetEvent struct {
	Origin  string          `json:"origin,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	// TimedOut is set when no provider message arrived within the load timeout.
	TimedOut bool `json:"timed_out,omitempty"`
}

// WidgetConfig converts the configured widget settings.
func WidgetConfig(c config.WidgetConfig) widget.Config {
	wc := widget.DefaultConfig()
	wc.BaseURL = c.BaseURL
	wc.RestaurantIDs = append([]string(nil), c.RestaurantIDs...)
	wc.Theme = c.Theme
	wc.Color = c.Color
	wc.Domain = c.Domain
	wc.Lang = c.Lang
	wc.NewTab = c.NewTab
	wc.Source = c.Source
	wc.LoadTimeout = time.Duration(c.LoadTimeoutMS) * time.Millisecond
	wc.MessageOrigin = c.MessageOrigin
	return wc
}

func (s *Service) startWidget(ctx context.Context) error {
	wc := WidgetConfig(s.cfg.Widget)
	if err := wc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.widget = widget.Widget{Config: wc, Venues: s.content.VenueNames()}
	s.prober = widget.NewProber(wc,
		widget.WithTTL(time.Duration(s.cfg.Widget.ProbeTTLSecs)*time.Second),
		widget.WithProbeClock(s.now),
		widget.WithLogger(s.logger.Named("widget")),
		widget.WithObserver(func(o widget.Outcome) {
			metrics.RecordWidgetOutcome("probe_" + o.String())
		}))

	if s.cfg.Widget.ProbeOnStartup {
		s.logger.Debug(ctx, "probing reservation widget in the background")
		s.prober.Warm()
	}
	return nil
}

// Widget returns the reservation widget.
func (s *Service) Widget() widget.Widget { return s.widget }

// WidgetAvailability returns the cached probe result. A stale result is
// served while the prober refreshes it in the background.
func (s *Service) WidgetAvailability(ctx context.Context) widget.Availability {
	if s.prober == nil {
		return widget.Availability{}
	}
	return s.prober.Check(ctx)
}

// RecordWidgetEvent decodes a beacon and counts the outcome it reports.
func (s *Service) RecordWidgetEvent(ctx context.Context, ev WidgetEvent) (widget.Outcome, error) {
	if ev.TimedOut {
		metrics.RecordWidgetOutcome(widget.TimedOut.String())
		return widget.TimedOut, nil
	}
	o, err := widget.ParseMessage(ev.Origin, s.widget.Config.MessageOrigin, ev.Message)
	if err != nil {
		metrics.RecordErrorByComponent("widget", "bad_event")
		s.logger.Debug(ctx, "ignored widget event", logger.Error(err))
		return o, err
	}
	metrics.RecordWidgetOutcome(o.String())
	return o, nil
}
