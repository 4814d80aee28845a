package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session storage drivers.
const (
	StoreMemory   = "memory"
	StoreCookie   = "cookie"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	BackendURL         string
	BackendProfilePath string
	BackendLoginPath   string
	BackendLogoutPath  string

	SessionStore  string
	SessionSecret string
	SessionTTL    time.Duration
	SlotTTL       time.Duration
	DatabaseURL   string
	RedisURL      string

	CORSOrigins        []string
	WebRoot            string
	LoginRatePerMinute int
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:               fallback(os.Getenv("PORT"), "8080"),
		Environment:        strings.ToLower(fallback(os.Getenv("ENVIRONMENT"), "development")),
		LogLevel:           fallback(os.Getenv("LOG_LEVEL"), "info"),
		BackendURL:         strings.TrimSpace(os.Getenv("BACKEND_URL")),
		BackendProfilePath: fallback(os.Getenv("BACKEND_PROFILE_PATH"), "/api/auth/profile"),
		BackendLoginPath:   fallback(os.Getenv("BACKEND_LOGIN_PATH"), "/api/auth/login"),
		BackendLogoutPath:  fallback(os.Getenv("BACKEND_LOGOUT_PATH"), "/api/auth/logout"),
		SessionStore:       strings.ToLower(fallback(os.Getenv("SESSION_STORE"), StoreMemory)),
		SessionSecret:      strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTL:         minutes(os.Getenv("SESSION_TTL_MINUTES"), 20),
		SlotTTL:            time.Duration(positiveInt(os.Getenv("SLOT_TTL_HOURS"), 168)) * time.Hour,
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		CORSOrigins:        parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		WebRoot:            strings.TrimSpace(os.Getenv("WEB_ROOT")),
		LoginRatePerMinute: positiveInt(os.Getenv("LOGIN_RATE_PER_MINUTE"), 10),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and driver-specific settings.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL %q must be an absolute URL", c.BackendURL)
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters long")
	}
	switch c.SessionStore {
	case StoreMemory, StoreCookie:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres session store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether cookies should be marked Secure.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func minutes(value string, def int) time.Duration {
	return time.Duration(positiveInt(value, def)) * time.Minute
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
