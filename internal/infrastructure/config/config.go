package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig
	Logging LogConfig
	Debug   DebugConfig
}

// EngineConfig holds per-context engine settings.
type EngineConfig struct {
	ExposeGC         bool          `envconfig:"JSRT_EXPOSE_GC" default:"false"`
	ExposeConsole    bool          `envconfig:"JSRT_EXPOSE_CONSOLE" default:"true"`
	MaxCallStackSize int           `envconfig:"JSRT_MAX_CALL_STACK" default:"1024" validate:"gte=0"`
	ScriptTimeout    time.Duration `envconfig:"JSRT_SCRIPT_TIMEOUT" default:"5s" validate:"gte=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// DebugConfig holds the debug HTTP server configuration.
type DebugConfig struct {
	Enabled bool   `envconfig:"DEBUG_ENABLED" default:"false"`
	Address string `envconfig:"DEBUG_ADDR" default:"127.0.0.1:9090" validate:"required_if=Enabled true"`
}

var validate = validator.New()

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ExposeGC:         false,
			ExposeConsole:    true,
			MaxCallStackSize: 1024,
			ScriptTimeout:    5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Debug: DebugConfig{
			Enabled: false,
			Address: "127.0.0.1:9090",
		},
	}
}
