package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the config file consulted when no explicit path is given.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	Engine    EngineConfig    `koanf:"engine"`
	Database  DatabaseConfig  `koanf:"database"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// EngineConfig carries the pipeline thresholds. Amount bounds are decimal
// strings so values survive the trip through YAML and env untouched.
type EngineConfig struct {
	Workers             int     `koanf:"workers" validate:"gte=0"`
	HighAmountThreshold string  `koanf:"high_amount_threshold" validate:"required"`
	AmountTolerance     string  `koanf:"amount_tolerance" validate:"required"`
	EntropyEpsilon      float64 `koanf:"entropy_epsilon" validate:"gt=0"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"gte=0,lte=1"`
}

// Load reads configuration in precedence order: built-in defaults, then the
// YAML file at path (optional), then FFE_-prefixed environment variables.
// An empty path falls back to DefaultPath.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Engine: EngineConfig{
			Workers:             0,
			HighAmountThreshold: "500",
			AmountTolerance:     "5",
			EntropyEpsilon:      1e-9,
		},
		Database: DatabaseConfig{
			URL:             "postgres://localhost:5432/fraud_features?sslmode=disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			SamplingRate: 1.0,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}
	// Config file is optional; defaults plus env cover the common case.
	_ = k.Load(file.Provider(path), yaml.Parser())

	// Double underscore separates nesting levels so snake_case keys stay
	// addressable: FFE_ENGINE__HIGH_AMOUNT_THRESHOLD -> engine.high_amount_threshold.
	if err := k.Load(env.Provider("FFE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FFE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values against the struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
