// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/cbodonnell/wager/pkg/negotiation"
)

// Config is the server configuration.
type Config struct {
	HTTPPort          int           `env:"WAGER_HTTP_PORT" envDefault:"8080"`
	DatabaseURL       string        `env:"WAGER_DATABASE_URL" envDefault:"sqlite://wager.db"`
	CatalogPath       string        `env:"WAGER_CATALOG_PATH" envDefault:"catalog.toml"`
	StakeCapacity     int           `env:"WAGER_STAKE_CAPACITY" envDefault:"12"`
	CountdownTicks    int           `env:"WAGER_COUNTDOWN_TICKS" envDefault:"5"`
	TickInterval      time.Duration `env:"WAGER_TICK_INTERVAL" envDefault:"1s"`
	ExpiryWindow      time.Duration `env:"WAGER_EXPIRY_WINDOW" envDefault:"5m"`
	SweepInterval     time.Duration `env:"WAGER_SWEEP_INTERVAL" envDefault:"30s"`
	SettlementTimeout time.Duration `env:"WAGER_SETTLEMENT_TIMEOUT" envDefault:"5s"`
	OutboundQueueSize int           `env:"WAGER_OUTBOUND_QUEUE_SIZE" envDefault:"64"`

	// AllowedOrigins are the cross-origin hosts allowed to open websockets.
	AllowedOrigins []string `env:"WAGER_ALLOWED_ORIGINS" envSeparator:","`
	TLSCertFile    string   `env:"WAGER_TLS_CERT_FILE"`
	TLSKeyFile     string   `env:"WAGER_TLS_KEY_FILE"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom is Load with an explicit environment.
func LoadFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("WAGER_HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("WAGER_DATABASE_URL is required")
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("WAGER_CATALOG_PATH is required")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("WAGER_TLS_CERT_FILE and WAGER_TLS_KEY_FILE must be set together")
	}
	positive := []struct {
		name  string
		value int64
	}{
		{"WAGER_STAKE_CAPACITY", int64(c.StakeCapacity)},
		{"WAGER_COUNTDOWN_TICKS", int64(c.CountdownTicks)},
		{"WAGER_TICK_INTERVAL", int64(c.TickInterval)},
		{"WAGER_EXPIRY_WINDOW", int64(c.ExpiryWindow)},
		{"WAGER_SWEEP_INTERVAL", int64(c.SweepInterval)},
		{"WAGER_SETTLEMENT_TIMEOUT", int64(c.SettlementTimeout)},
		{"WAGER_OUTBOUND_QUEUE_SIZE", int64(c.OutboundQueueSize)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}
	return nil
}

// TLSEnabled reports whether the API should be served over TLS.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != ""
}

// Settings returns the session settings described by the config.
func (c Config) Settings() negotiation.Settings {
	return negotiation.Settings{
		Capacity:          c.StakeCapacity,
		CountdownTicks:    c.CountdownTicks,
		TickInterval:      c.TickInterval,
		ExpiryWindow:      c.ExpiryWindow,
		SettlementTimeout: c.SettlementTimeout,
	}
}
