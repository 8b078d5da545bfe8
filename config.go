package postapi

import (
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	glog "github.com/labstack/gommon/log"
)

// Config holds all configuration for a postapi server.
type Config struct {
	Addr        string // Listen address (default ":8080")
	DatabaseURL string // Store connection string (default "sqlite://data/blog.db")

	LogLevel string // debug, info, warn, error or off (default "info")

	BodyLimit       string        // Maximum request body size (default "1M")
	ShutdownTimeout time.Duration // Grace period for in-flight requests (default 10s)

	// WriteRateLimit caps POST/PUT/DELETE requests per client IP within
	// WriteRateWindow. Zero disables the limiter.
	WriteRateLimit  int
	WriteRateWindow time.Duration // default 1m
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sqlite://data/blog.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.BodyLimit == "" {
		c.BodyLimit = "1M"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.WriteRateWindow == 0 {
		c.WriteRateWindow = time.Minute
	}
}

// ConfigFromEnv builds a Config from DATABASE_URL, PORT or ADDR, LOG_LEVEL
// and WRITE_RATE_LIMIT. Unset variables fall back to the defaults.
func ConfigFromEnv() Config {
	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Addr:        os.Getenv("ADDR"),
	}
	if port := os.Getenv("PORT"); port != "" && cfg.Addr == "" {
		cfg.Addr = ":" + port
	}
	if v := os.Getenv("WRITE_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Fatalf("postapi: WRITE_RATE_LIMIT must be a non-negative integer, got %q", v)
		}
		cfg.WriteRateLimit = n
	}
	cfg.setDefaults()
	return cfg
}

// logLevel maps Config.LogLevel onto the echo logger levels.
func (c Config) logLevel() glog.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return glog.DEBUG
	case "warn", "warning":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off", "none":
		return glog.OFF
	default:
		return glog.INFO
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are installed.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogOutput redirects the echo logger, e.g. to io.Discard in tests.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		a.logOutput = w
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("postapi: required environment variable %s is not set", key)
	}
	return v
}
