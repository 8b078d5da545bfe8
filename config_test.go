package postapi

import (
	"testing"
	"time"

	glog "github.com/labstack/gommon/log"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabaseURL != "sqlite://data/blog.db" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "sqlite://data/blog.db")
	}
	if cfg.WriteRateLimit != 0 {
		t.Errorf("WriteRateLimit = %d, want 0 (disabled)", cfg.WriteRateLimit)
	}
	if cfg.WriteRateWindow != time.Minute {
		t.Errorf("WriteRateWindow = %s, want 1m", cfg.WriteRateWindow)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017/blog-app")
	t.Setenv("PORT", "9000")
	t.Setenv("ADDR", "")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("WRITE_RATE_LIMIT", "30")

	cfg := ConfigFromEnv()
	if cfg.DatabaseURL != "mongodb://localhost:27017/blog-app" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9000")
	}
	if cfg.WriteRateLimit != 30 {
		t.Errorf("WriteRateLimit = %d, want 30", cfg.WriteRateLimit)
	}
	if cfg.logLevel() != glog.WARN {
		t.Errorf("logLevel = %v, want WARN", cfg.logLevel())
	}
}

func TestConfigAddrWinsOverPort(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ADDR", "127.0.0.1:7000")
	t.Setenv("WRITE_RATE_LIMIT", "")

	cfg := ConfigFromEnv()
	if cfg.Addr != "127.0.0.1:7000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "127.0.0.1:7000")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want glog.Lvl
	}{
		{"", glog.INFO},
		{"debug", glog.DEBUG},
		{"INFO", glog.INFO},
		{"warning", glog.WARN},
		{"error", glog.ERROR},
		{"off", glog.OFF},
		{"bogus", glog.INFO},
	}
	for _, tt := range tests {
		got := Config{LogLevel: tt.in}.logLevel()
		if got != tt.want {
			t.Errorf("logLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
