package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/voyager-portal/internal/config"
)

// unset removes key from the environment for the duration of the test.
// t.Setenv registers the restore; os.Unsetenv makes the key truly absent so
// envconfig applies its default instead of an empty value.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// TestLoad_defaults verifies that optional env vars fall back to their defaults
// when only the required API_BASE_URL is provided.
func TestLoad_defaults(t *testing.T) {
	unset(t, "PORT", "LOG_LEVEL", "CORS_ORIGINS", "SESSION_STORE", "STATUS_FLASH",
		"SESSION_TTL", "UPSTREAM_TIMEOUT", "TIMEZONE", "LOGIN_RATE", "LOGIN_BURST", "AVATAR_MAX_BYTES")
	t.Setenv("API_BASE_URL", "http://localhost:3000/api")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "http://localhost:3000/api", cfg.APIBaseURL)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	require.Equal(t, config.StoreMemory, cfg.SessionStore)
	require.Equal(t, time.Second, cfg.StatusFlash)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, int64(5<<20), cfg.AvatarMaxBytes)
	require.Equal(t, 5, cfg.LoginBurst)
}

// TestLoad_overrides verifies that values can be overridden via env vars.
func TestLoad_overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/portal")
	t.Setenv("STATUS_FLASH", "2s")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	require.Equal(t, config.StorePostgres, cfg.SessionStore)
	require.Equal(t, "postgres://user:pass@db:5432/portal", cfg.DatabaseURL)
	require.Equal(t, 2*time.Second, cfg.StatusFlash)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

// TestLoad_missingRequired verifies that an error is returned when API_BASE_URL
// is not set, and that the error message names the missing variable.
func TestLoad_missingRequired(t *testing.T) {
	unset(t, "API_BASE_URL")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorContains(t, err, "API_BASE_URL")
}

// TestLoad_storeNeedsConnection verifies that choosing a persistent session
// store without its connection string is rejected.
func TestLoad_storeNeedsConnection(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:3000/api")
	t.Setenv("SESSION_STORE", "redis")
	unset(t, "REDIS_URL")

	_, err := config.Load()

	require.ErrorContains(t, err, "REDIS_URL")
}

func TestLoad_unknownStore(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:3000/api")
	t.Setenv("SESSION_STORE", "etcd")

	_, err := config.Load()

	require.ErrorContains(t, err, "SESSION_STORE")
}
