// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Session store backends accepted by SESSION_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration values for the portal server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `envconfig:"PORT" default:"8080"`

	// LogLevel controls the minimum log level.
	// Valid values: debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	// APIBaseURL is the base of the trips/cart/profile backend, e.g.
	// "http://localhost:3000/api". Required.
	APIBaseURL string `envconfig:"API_BASE_URL" required:"true"`

	// UpstreamTimeout bounds every call to the backend.
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	// SessionStore selects where sessions live: memory, postgres or redis.
	SessionStore string `envconfig:"SESSION_STORE" default:"memory"`

	// DatabaseURL is the Postgres connection string. Required when
	// SessionStore is postgres.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// RedisURL is the Redis connection URL. Required when SessionStore is redis.
	RedisURL string `envconfig:"REDIS_URL"`

	// SessionTTL is used when the bearer token carries no exp claim.
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// CookieSecure marks the session cookie Secure (HTTPS only).
	CookieSecure bool `envconfig:"COOKIE_SECURE" default:"false"`

	// StatusFlash is how long a cart save indicator stays visible.
	StatusFlash time.Duration `envconfig:"STATUS_FLASH" default:"1s"`

	// AvatarMaxBytes caps the size of an uploaded avatar image.
	AvatarMaxBytes int64 `envconfig:"AVATAR_MAX_BYTES" default:"5242880"`

	// Timezone is the IANA location used to decide what "today" is.
	// "Local" uses the server's zone.
	Timezone string `envconfig:"TIMEZONE" default:"Local"`

	// LoginRate and LoginBurst limit credential submissions per client IP.
	LoginRate  float64 `envconfig:"LOGIN_RATE" default:"1"`
	LoginBurst int     `envconfig:"LOGIN_BURST" default:"5"`
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is applied first when present; real
// environment variables always win over it.
// Returns an error naming any required variable that is not set.
func Load() (Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	var missing []string
	switch cfg.SessionStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown SESSION_STORE %q (want memory, postgres or redis)", cfg.SessionStore)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if _, err := cfg.Location(); err != nil {
		return Config{}, fmt.Errorf("config: TIMEZONE: %w", err)
	}

	return cfg, nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// trimAll trims each entry and drops empty ones.
func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
