package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// config is read from SHUTTLE_* environment variables.
type config struct {
	RedisURL    string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisPrefix string        `envconfig:"REDIS_PREFIX" default:"shuttle:"`
	CacheRoot   string        `envconfig:"CACHE_ROOT" default:"tmp/cache"`
	Environment string        `envconfig:"ENV" default:"development"`
	LockTTL     time.Duration `envconfig:"LOCK_TTL" default:"0"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"text"`
}

// loadConfig loads envFile into the environment, if it exists, and then
// parses the SHUTTLE_* variables. Variables already set win over the file.
func loadConfig(envFile string) (config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg config
	if err := envconfig.Process("shuttle", &cfg); err != nil {
		return config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// newLogger builds a text or JSON slog handler on w.
func newLogger(cfg config, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch cfg.LogFormat {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", cfg.LogFormat)
	}
}
