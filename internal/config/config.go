// Package config loads service and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/addressfmt/pkg/logger"
)

// ErrInvalidConfig wraps every parse or validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all runtime settings. Zero values are never used directly;
// Load applies the envDefault values first.
type Config struct {
	HTTPAddr        string        `env:"ADDRESSFMT_HTTP_ADDR" envDefault:":8080" validate:"required"`
	ShutdownTimeout time.Duration `env:"ADDRESSFMT_SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	RequestTimeout  time.Duration `env:"ADDRESSFMT_REQUEST_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	// TemplatesDir is an optional overlay of YAML templates loaded on top of
	// the bundled set.
	TemplatesDir string `env:"ADDRESSFMT_TEMPLATES_DIR" validate:"omitempty,dir"`
	LogLevel     string `env:"ADDRESSFMT_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat    string `env:"ADDRESSFMT_LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`
	MaxBodyBytes int64  `env:"ADDRESSFMT_MAX_BODY_BYTES" envDefault:"65536" validate:"gt=0"`
	BatchWorkers int    `env:"ADDRESSFMT_BATCH_WORKERS" envDefault:"8" validate:"gte=1,lte=256"`

	Sentry logger.SentryConfig
}

// Load reads the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom reads settings from vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints. CLI flags may change a loaded Config, so
// callers run it again after applying overrides.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel converts LogLevel. Validate guarantees the name is known.
func (c Config) SlogLevel() slog.Level {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// LoggerOptions returns the stdout logger settings.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Format: logger.Format(c.LogFormat),
		Level:  c.SlogLevel(),
	}
}
