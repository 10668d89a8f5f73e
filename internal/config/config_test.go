package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Addr)
	require.Empty(t, cfg.AuthTokens)
	require.Equal(t, 10*time.Second, cfg.FetchTimeout)
	require.Equal(t, "memory", cfg.StoreBackend)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "toolgate", cfg.ServerName)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TOOLGATE_ADDR", ":9999")
	t.Setenv("TOOLGATE_AUTH_TOKENS", "alpha, beta,,gamma")
	t.Setenv("TOOLGATE_FETCH_TIMEOUT", "3")
	t.Setenv("TOOLGATE_STORE_BACKEND", "redis")
	t.Setenv("TOOLGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.AuthTokens)
	require.Equal(t, 3*time.Second, cfg.FetchTimeout)
	require.Equal(t, "redis", cfg.StoreBackend)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsNonPositiveFetchTimeout(t *testing.T) {
	t.Setenv("TOOLGATE_FETCH_TIMEOUT", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	require.NotNil(t, NewLogger("nonsense"))
	require.NotNil(t, NewLogger("debug"))
	require.NotNil(t, NopLogger())
}
