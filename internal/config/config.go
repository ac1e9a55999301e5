// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New(); Load layers an optional YAML file and DHC_* env vars on top.
// - Durations are expressed in milliseconds or seconds with explicit suffixes in the key.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// BaseURL is the public origin of the site, used for CSRF trusted origins.
	BaseURL string `koanf:"base_url"`
	// SecureCookies marks session and CSRF cookies Secure.
	SecureCookies bool `koanf:"secure_cookies"`

	// DBPath is the SQLite database file; ":memory:" selects the in-memory store.
	DBPath string `koanf:"db_path"`

	// SessionSecret signs admin session tokens (HS256); at least 32 bytes.
	SessionSecret string `koanf:"session_secret"`
	// SessionTTLHours bounds the lifetime of an admin session.
	SessionTTLHours int `koanf:"session_ttl_hours"`
	// CSRFKey authenticates CSRF tokens; 32 bytes.
	CSRFKey string `koanf:"csrf_key"`
	// LoginAttemptsPerMinute caps sign-in attempts per e-mail address.
	LoginAttemptsPerMinute int `koanf:"login_attempts_per_minute"`
	// LoginBurst is the burst allowance for sign-in attempts.
	LoginBurst int `koanf:"login_burst"`

	// QueueSize bounds the in-memory contact submission queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the number of remembered submission tokens.
	DedupeSize int `koanf:"dedupe_size"`

	// Widget configures the third-party reservation widget.
	Widget WidgetConfig `koanf:"widget"`

	// Metrics names and labels the Prometheus collectors.
	Metrics MetricsConfig `koanf:"metrics"`

	// ContentFile optionally overrides the embedded site content YAML.
	ContentFile string `koanf:"content_file"`
	// TimeZone is the IANA zone dashboard dates and booking ranges are shown in.
	TimeZone string `koanf:"time_zone"`
}

// WidgetConfig mirrors the booking provider query-string contract.
type WidgetConfig struct {
	BaseURL        string   `koanf:"base_url"`
	RestaurantIDs  []string `koanf:"restaurant_ids"`
	Theme          string   `koanf:"theme"`
	Color          int      `koanf:"color"`
	Domain         string   `koanf:"domain"`
	Lang           string   `koanf:"lang"`
	NewTab         bool     `koanf:"new_tab"`
	Source         string   `koanf:"source"`
	LoadTimeoutMS  int      `koanf:"load_timeout_ms"`
	ProbeTTLSecs   int      `koanf:"probe_ttl_seconds"`
	MessageOrigin  string   `koanf:"message_origin"`
	ProbeOnStartup bool     `koanf:"probe_on_startup"`
}

// MetricsConfig names the exported series. ConstLabels tell apart several
// sites scraped into one Prometheus, e.g. site=manchester.
type MetricsConfig struct {
	Namespace   string            `koanf:"namespace"`
	Subsystem   string            `koanf:"subsystem"`
	ConstLabels map[string]string `koanf:"const_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8080",
		BaseURL:                "http://localhost:8080",
		SecureCookies:          false,
		DBPath:                 "data/delhihouse.db",
		SessionSecret:          "",
		SessionTTLHours:        24,
		CSRFKey:                "",
		LoginAttemptsPerMinute: 5,
		LoginBurst:             5,
		QueueSize:              1_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             10_000,
		TimeZone:               "Europe/London",
		Metrics: MetricsConfig{
			Namespace: "delhihouse",
			Subsystem: "site",
		},
		Widget: WidgetConfig{
			BaseURL:        "https://www.opentable.co.uk",
			RestaurantIDs:  []string{"227751", "369630"},
			Theme:          "standard",
			Color:          1,
			Domain:         "couk",
			Lang:           "en-GB",
			NewTab:         false,
			Source:         "Restaurant website",
			LoadTimeoutMS:  10_000,
			ProbeTTLSecs:   300,
			MessageOrigin:  "https://www.opentable.co.uk",
			ProbeOnStartup: false,
		},
	}
}
