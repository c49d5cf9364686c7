package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// History backends accepted in HISTORY_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

const maxHistoryLimit = 50

type AppConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	BadgerDir   string `env:"BADGER_DIR"`

	HistoryBackend string `env:"HISTORY_BACKEND" envDefault:"memory"`

	SessionTTL        time.Duration `env:"SESSION_TTL"        envDefault:"24h"`
	HistoryLimit      int           `env:"HISTORY_LIMIT"      envDefault:"10"`
	DefaultDifficulty int           `env:"DEFAULT_DIFFICULTY" envDefault:"2"`

	MessagesDir string `env:"MESSAGES_DIR"`
	RenderBoard bool   `env:"RENDER_BOARD" envDefault:"true"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.BadgerDir = strings.TrimSpace(c.BadgerDir)
	c.MessagesDir = strings.TrimSpace(c.MessagesDir)
	c.HistoryBackend = strings.ToLower(strings.TrimSpace(c.HistoryBackend))
	if c.HistoryBackend == "" {
		c.HistoryBackend = BackendMemory
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > maxHistoryLimit {
		c.HistoryLimit = 10
	}
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *AppConfig) Validate() error {
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be greater than 0")
	}
	if c.DefaultDifficulty < 1 || c.DefaultDifficulty > 3 {
		return fmt.Errorf("DEFAULT_DIFFICULTY must be 1, 2 or 3, got %d", c.DefaultDifficulty)
	}
	switch c.HistoryBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres history backend")
		}
	case BackendBadger:
		if c.BadgerDir == "" {
			return errors.New("BADGER_DIR is required for the badger history backend")
		}
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}
	return nil
}
