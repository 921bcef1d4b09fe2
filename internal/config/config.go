// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds the HTTP server configuration. DatabaseURL and RedisURL are
// optional: with neither set the server runs on the in-memory store.
type Server struct {
	Port        int           `env:"SIMENGINE_PORT" envDefault:"8080"`
	DatabaseURL string        `env:"SIMENGINE_DATABASE_URL"`
	RedisURL    string        `env:"SIMENGINE_REDIS_URL"`
	CacheTTL    time.Duration `env:"SIMENGINE_CACHE_TTL" envDefault:"10m"`

	// MaxBet and MaxExposure configure the risk limiter; zero disables it.
	MaxBet      int `env:"SIMENGINE_MAX_BET"`
	MaxExposure int `env:"SIMENGINE_MAX_EXPOSURE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
