package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, Config{
		HTTPPort:          8080,
		DatabaseURL:       "sqlite://wager.db",
		CatalogPath:       "catalog.toml",
		StakeCapacity:     12,
		CountdownTicks:    5,
		TickInterval:      time.Second,
		ExpiryWindow:      5 * time.Minute,
		SweepInterval:     30 * time.Second,
		SettlementTimeout: 5 * time.Second,
		OutboundQueueSize: 64,
	}, cfg)
	assert.False(t, cfg.TLSEnabled())
	assert.Equal(t, 12, cfg.Settings().Capacity)
	assert.Equal(t, 5*time.Minute, cfg.Settings().ExpiryWindow)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"WAGER_HTTP_PORT":       "9090",
		"WAGER_DATABASE_URL":    "postgresql://wager@localhost/wager",
		"WAGER_COUNTDOWN_TICKS": "3",
		"WAGER_TICK_INTERVAL":   "250ms",
		"WAGER_ALLOWED_ORIGINS": "example.com,*.example.org",
		"WAGER_TLS_CERT_FILE":   "cert.pem",
		"WAGER_TLS_KEY_FILE":    "key.pem",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "postgresql://wager@localhost/wager", cfg.DatabaseURL)
	assert.Equal(t, 3, cfg.Settings().CountdownTicks)
	assert.Equal(t, 250*time.Millisecond, cfg.Settings().TickInterval)
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TLSEnabled())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "not a number", env: map[string]string{"WAGER_STAKE_CAPACITY": "many"}},
		{name: "zero capacity", env: map[string]string{"WAGER_STAKE_CAPACITY": "0"}},
		{name: "negative ticks", env: map[string]string{"WAGER_COUNTDOWN_TICKS": "-1"}},
		{name: "zero interval", env: map[string]string{"WAGER_SWEEP_INTERVAL": "0s"}},
		{name: "bad duration", env: map[string]string{"WAGER_EXPIRY_WINDOW": "soon"}},
		{name: "port out of range", env: map[string]string{"WAGER_HTTP_PORT": "70000"}},
		{name: "zero queue", env: map[string]string{"WAGER_OUTBOUND_QUEUE_SIZE": "0"}},
		{name: "cert without key", env: map[string]string{"WAGER_TLS_CERT_FILE": "cert.pem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.env)
			assert.Error(t, err)
		})
	}
}
