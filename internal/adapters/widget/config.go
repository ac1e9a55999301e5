// Package widget embeds the third-party reservation widget behind a typed
// interface: configuration in, loaded/failed/timed-out outcomes out.
package widget

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config is the provider's loader query contract.
type Config struct {
	BaseURL       string
	RestaurantIDs []string
	Theme         string
	Color         int
	Dark          bool
	IFrame        bool
	Domain        string
	Lang          string
	NewTab        bool
	Source        string
	CFE           bool
	LoadTimeout   time.Duration
	// MessageOrigin is the only origin whose postMessage events are trusted.
	MessageOrigin string
}

// DefaultConfig returns the settings of the restaurant's two venues.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://www.opentable.co.uk",
		RestaurantIDs: []string{"227751", "369630"},
		Theme:         "standard",
		Color:         1,
		IFrame:        true,
		Domain:        "couk",
		Lang:          "en-GB",
		Source:        "Restaurant website",
		CFE:           true,
		LoadTimeout:   10 * time.Second,
		MessageOrigin: "https://www.opentable.co.uk",
	}
}

// Validate checks the config can produce a loader URL.
func (c Config) Validate() error {
	if len(c.RestaurantIDs) == 0 {
		return fmt.Errorf("%w: no restaurant ids", ErrInvalidConfig)
	}
	for _, id := range c.RestaurantIDs {
		if id == "" || strings.ContainsAny(id, "&?#=/ ") {
			return fmt.Errorf("%w: bad restaurant id %q", ErrInvalidConfig, id)
		}
	}
	if _, err := url.Parse(c.BaseURL); err != nil || c.BaseURL == "" {
		return fmt.Errorf("%w: bad base url %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("%w: load timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Type is "multi" for more than one restaurant, else "standard".
func (c Config) Type() string {
	if len(c.RestaurantIDs) > 1 {
		return "multi"
	}
	return "standard"
}

// LoaderURL builds the widget loader URL. Parameter order follows the
// provider's documented snippet.
func (c Config) LoaderURL() string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(c.BaseURL, "/"))
	b.WriteString("/widget/reservation/loader?")
	params := make([]string, 0, len(c.RestaurantIDs)+10)
	for _, id := range c.RestaurantIDs {
		params = append(params, "rid="+url.QueryEscape(id))
	}
	params = append(params,
		"type="+c.Type(),
		"theme="+url.QueryEscape(c.Theme),
		"color="+strconv.Itoa(c.Color),
		"dark="+strconv.FormatBool(c.Dark),
		"iframe="+strconv.FormatBool(c.IFrame),
		"domain="+url.QueryEscape(c.Domain),
		"lang="+url.QueryEscape(c.Lang),
		"newtab="+strconv.FormatBool(c.NewTab),
		"ot_source="+url.PathEscape(c.Source),
		"cfe="+strconv.FormatBool(c.CFE),
	)
	b.WriteString(strings.Join(params, "&"))
	return b.String()
}

// FallbackURL is the provider's direct booking page for one restaurant.
func (c Config) FallbackURL(rid string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/restref/client/?rid=" + url.QueryEscape(rid)
}

// FallbackURLs returns the direct booking page of every restaurant.
func (c Config) FallbackURLs() []string {
	out := make([]string, len(c.RestaurantIDs))
	for i, id := range c.RestaurantIDs {
		out[i] = c.FallbackURL(id)
	}
	return out
}
