package config

import (
	"bytes"
	"encoding/json"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GO_ENV", "DATABASE_URL", "PORT", "JWT_SECRET", "JWT_EXPIRY", "CORS_ORIGINS",
		"REQUEST_TIMEOUT", "STATS_WINDOW", "REDIS_ADDR", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
		"EMAIL_PROVIDER", "SMTP_PORT", "TRUSTED_PROXIES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, defaultDBUrl, cfg.DBUrl)
	assert.Equal(t, 2*time.Hour, cfg.StatsWindow)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Redis.TrustedProxies)
}

func TestLoad_overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STATS_WINDOW", "30m")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.StatsWindow)
	assert.Equal(t, 10, cfg.Redis.RateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.7/32"),
	}, cfg.Redis.TrustedProxies)
}

func TestLoad_invalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "STATS_WINDOW", "soon"},
		{"negative duration", "REQUEST_TIMEOUT", "-1s"},
		{"bad int", "RATE_LIMIT_REQUESTS", "many"},
		{"bad proxy", "TRUSTED_PROXIES", "10.0.0.0/33"},
		{"proxy hostname", "TRUSTED_PROXIES", "lb.internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_productionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "production")
	_, err := Load()
	require.Error(t, err)
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "production", "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}
