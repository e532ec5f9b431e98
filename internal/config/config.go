// Package config loads server settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/bracket-battle/internal/engine"
)

var drivers = []string{"memory", "sqlite", "postgres"}

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	MaxPlayers     int           `env:"MAX_PLAYERS" envDefault:"10"`
	IdleTimeout    time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"0"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	StoreDSN       string        `env:"STORE_DSN" envDefault:"./config/bracket.db"`
	PublicURL      string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	Dev            bool          `env:"DEV" envDefault:"false"`
}

// Load reads envFile if it exists, then the process environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.MaxPlayers = max(cfg.MaxPlayers, engine.MinMaxPlayers)
	if cfg.IdleTimeout < 0 {
		return Config{}, fmt.Errorf("SESSION_IDLE_TIMEOUT must not be negative, got %s", cfg.IdleTimeout)
	}
	if !slices.Contains(drivers, cfg.StoreDriver) {
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of %v, got %q", drivers, cfg.StoreDriver)
	}
	return cfg, nil
}
