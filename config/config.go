// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server.
type Config struct {
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DBPath string `envconfig:"DB_PATH" default:"assets.db"`

	SchedulerEnabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SchedulerInterval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"1h"`

	// PostRateLimit is requests per minute per client IP on POST /api/accruals/post.
	PostRateLimit int `envconfig:"POST_RATE_LIMIT" default:"10"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH must not be empty")
	}
	if cfg.SchedulerEnabled && cfg.SchedulerInterval <= 0 {
		return nil, errors.New("SCHEDULER_INTERVAL must be positive")
	}
	if cfg.PostRateLimit < 1 {
		cfg.PostRateLimit = 1
	}
	return &cfg, nil
}

// NewLogger returns a configured slog.Logger based on configuration.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
