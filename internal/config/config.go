// Package config loads runtime configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	RedisURL    string

	// RateLimitRPS / RateLimitBurst bound requests per client IP.
	RateLimitRPS   float64
	RateLimitBurst int

	// LobbyTTL expires lobby connections that stop sending updates.
	LobbyTTL time.Duration
}

// Load reads configuration from the environment. A missing .env file is
// fine; deployed environments inject variables directly.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not found, using process environment")
	}

	return &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),
		LobbyTTL:       getEnvDuration("LOBBY_TTL", time.Hour),
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
