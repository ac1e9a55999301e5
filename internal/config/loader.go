package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "DHC_"
	envConfigFile = "DHC_CONFIG"

	minSecretLen  = 32
	csrfKeyLength = 32
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DHC_CONFIG is set
//  3. env (prefix DHC_); nested keys use a double underscore, e.g. DHC_WIDGET__LANG
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "config" {
			return "", nil
		}
		key = strings.ReplaceAll(key, "__", ".")
		if key == "widget.restaurant_ids" {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the service relies on at startup.
// Secrets are optional here; the serve command generates ephemeral ones when empty.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.SessionSecret != "" && len(c.SessionSecret) < minSecretLen:
		return fmt.Errorf("%w: session_secret must be at least %d bytes", ErrInvalidConfig, minSecretLen)
	case c.CSRFKey != "" && len(c.CSRFKey) != csrfKeyLength:
		return fmt.Errorf("%w: csrf_key must be exactly %d bytes", ErrInvalidConfig, csrfKeyLength)
	case c.SessionTTLHours <= 0:
		return fmt.Errorf("%w: session_ttl_hours must be positive", ErrInvalidConfig)
	case len(c.Widget.RestaurantIDs) == 0:
		return fmt.Errorf("%w: widget.restaurant_ids must not be empty", ErrInvalidConfig)
	case c.Widget.LoadTimeoutMS <= 0:
		return fmt.Errorf("%w: widget.load_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("%w: time_zone: %w", ErrInvalidConfig, err)
	}
	return nil
}
