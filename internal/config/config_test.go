package config_test

import (
	"testing"
	"time"

	"github.com/orbitalworks/salvage-exchange/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "DATABASE_URL", "REDIS_URL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOBBY_TTL"} {
		t.Setenv(key, "")
	}

	cfg := config.Load()
	if cfg.Env != "development" || cfg.Port != "8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg)
	}
	if cfg.LobbyTTL != time.Hour {
		t.Errorf("expected 1h lobby TTL, got %v", cfg.LobbyTTL)
	}
	if cfg.IsProduction() {
		t.Error("development config reported production")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_URL", "postgres://localhost/salvage")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("LOBBY_TTL", "90s")

	cfg := config.Load()
	if !cfg.IsProduction() {
		t.Error("expected production mode")
	}
	if cfg.Port != "9999" || cfg.DatabaseURL != "postgres://localhost/salvage" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Errorf("unexpected rate limits: %+v", cfg)
	}
	if cfg.LobbyTTL != 90*time.Second {
		t.Errorf("expected 90s TTL, got %v", cfg.LobbyTTL)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "lots")
	t.Setenv("RATE_LIMIT_BURST", "3.14")
	t.Setenv("LOBBY_TTL", "soon")

	cfg := config.Load()
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 || cfg.LobbyTTL != time.Hour {
		t.Errorf("malformed values should fall back to defaults: %+v", cfg)
	}
}
