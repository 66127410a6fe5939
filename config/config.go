// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// StateLogKind selects the state log sink.
type StateLogKind string

const (
	StateLogMemory StateLogKind = "memory"
	StateLogJSONL  StateLogKind = "jsonl"
	StateLogRedis  StateLogKind = "redis"
	StateLogSQLite StateLogKind = "sqlite"
)

type Config struct {
	TickRate     float64      `env:"PROPSIM_TICK_RATE" envDefault:"60"`
	LogLevel     string       `env:"PROPSIM_LOG_LEVEL" envDefault:"info"`
	SceneDir     string       `env:"PROPSIM_SCENE_DIR" envDefault:"scenes"`
	StateLog     StateLogKind `env:"PROPSIM_STATE_LOG" envDefault:"memory"`
	StateLogPath string       `env:"PROPSIM_STATE_LOG_PATH" envDefault:"propsim-states.jsonl"`
	RedisAddr    string       `env:"PROPSIM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKey     string       `env:"PROPSIM_REDIS_KEY" envDefault:"propsim:states"`
	HTTPAddr     string       `env:"PROPSIM_HTTP_ADDR"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %v", c.TickRate)
	}
	switch c.StateLog {
	case StateLogMemory, StateLogJSONL, StateLogRedis, StateLogSQLite:
	default:
		return fmt.Errorf("unknown state log %q", c.StateLog)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
