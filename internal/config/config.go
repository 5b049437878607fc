// Package config loads runtime settings from the environment (optionally seeded
// from a .env file) and holds the tuning constants shared by the services.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lock backends accepted in ROOM_LOCK_BACKEND.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config is the process configuration.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	RedisURL    string
	LockBackend string
	LogLevel    slog.Level

	LiveKitAPIKey    string
	LiveKitAPISecret string
	TokenTTL         time.Duration

	Search SearchConfig
}

// SearchConfig holds the Elasticsearch connection settings.
// An empty URL disables room indexing.
type SearchConfig struct {
	URL         string
	Username    string
	Password    string
	Fingerprint string
	RoomIndex   string
}

// Enabled reports whether a search cluster is configured.
func (s SearchConfig) Enabled() bool {
	return s.URL != ""
}

// LoadDotEnv reads .env.local, then .env, if present. A missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Warn(".env not found, using environment variables")
		}
	}
}

// Load builds a Config from the process environment.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		HTTPAddr:         get("HTTP_ADDR", ":8080"),
		DatabaseURL:      get("DATABASE_URL", ""),
		RedisURL:         get("REDIS_URL", ""),
		LockBackend:      strings.ToLower(get("ROOM_LOCK_BACKEND", LockBackendLocal)),
		LiveKitAPIKey:    get("LIVEKIT_API_KEY", ""),
		LiveKitAPISecret: get("LIVEKIT_API_SECRET", ""),
		TokenTTL:         DefaultTokenTTL,
		Search: SearchConfig{
			URL:         get("ELASTICSEARCH_URL", ""),
			Username:    get("ELASTICSEARCH_USERNAME", ""),
			Password:    get("ELASTICSEARCH_PASSWORD", ""),
			Fingerprint: get("ELASTICSEARCH_FINGERPRINT", ""),
			RoomIndex:   get("ELASTICSEARCH_ROOM_INDEX", DefaultRoomIndex),
		},
	}

	if raw := get("LIVEKIT_TOKEN_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid LIVEKIT_TOKEN_TTL %q", raw)
		}
		cfg.TokenTTL = ttl
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.LockBackend {
	case LockBackendLocal, LockBackendRedis:
	default:
		return nil, fmt.Errorf("invalid ROOM_LOCK_BACKEND %q", cfg.LockBackend)
	}

	return cfg, nil
}

// ValidateServer checks the settings the API server cannot start without.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is not set"))
	}
	if c.LiveKitAPIKey == "" || c.LiveKitAPISecret == "" {
		errs = append(errs, errors.New("LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set"))
	}
	return errors.Join(errs...)
}
