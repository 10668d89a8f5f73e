// Package config loads gateway settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variables, e.g. TOOLGATE_ADDR.
const EnvPrefix = "TOOLGATE"

// Config holds the runtime settings of the gateway process.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// AuthTokens is the allow-list checked by the auth middleware.
	// Empty means authentication is disabled.
	AuthTokens []string

	// FetchTimeout bounds a tool's own outbound HTTP calls. It is distinct
	// from (and shorter than) the protocol-level request timeout.
	FetchTimeout time.Duration

	// SearchEndpoint is the upstream queried by the search tool.
	SearchEndpoint string

	// StoreBackend selects the key-value backend.
	StoreBackend string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// ServerName and ServerVersion are reported by the initialize handshake.
	ServerName    string
	ServerVersion string
}

// Load reads configuration from TOOLGATE_* environment variables, applying
// defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("auth_tokens", "")
	v.SetDefault("fetch_timeout", 10)
	v.SetDefault("search_endpoint", "")
	v.SetDefault("store_backend", "memory")
	v.SetDefault("log_level", "info")
	v.SetDefault("server_name", "toolgate")
	v.SetDefault("server_version", "1.0.0")

	fetchTimeout := v.GetInt("fetch_timeout")
	if fetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch_timeout must be positive, got %d", fetchTimeout)
	}

	return &Config{
		Addr:           v.GetString("addr"),
		AuthTokens:     splitTokens(v.GetString("auth_tokens")),
		FetchTimeout:   time.Duration(fetchTimeout) * time.Second,
		SearchEndpoint: v.GetString("search_endpoint"),
		StoreBackend:   v.GetString("store_backend"),
		LogLevel:       v.GetString("log_level"),
		ServerName:     v.GetString("server_name"),
		ServerVersion:  v.GetString("server_version"),
	}, nil
}

// splitTokens parses a comma-separated token list, dropping empty entries.
func splitTokens(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}

	return tokens
}
