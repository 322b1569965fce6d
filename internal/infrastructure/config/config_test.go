package config_test

import (
	"testing"
	"time"

	"github.com/kodbank/kodbank/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "5000" {
		t.Fatalf("expected default HTTP port 5000, got %s", cfg.HTTPPort)
	}

	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected default session TTL 1h, got %s", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RATE_LIMIT_PER_SECOND", "5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.JWTSecret != "top-secret" {
		t.Fatalf("expected JWT secret override, got %s", cfg.JWTSecret)
	}

	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected session TTL override, got %s", cfg.SessionTTL)
	}

	if cfg.RateLimitPerSecond != 5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitPerSecond)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
