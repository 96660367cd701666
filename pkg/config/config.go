// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shikhar1809/vajra-core/pkg/alerting"
)

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr                   string `yaml:"addr" validate:"required"`
	ShutdownTimeoutSeconds int    `yaml:"shutdownTimeoutSeconds" validate:"min=1"`
}

// AuthConfig configures API authentication. The secret may also come
// from the VAJRA_JWT_SECRET environment variable, which wins over the
// file value.
type AuthConfig struct {
	Secret          string `yaml:"secret" validate:"omitempty,min=32"`
	TokenTTLMinutes int    `yaml:"tokenTtlMinutes" validate:"min=1"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// Config is the full service configuration
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Auth     AuthConfig      `yaml:"auth"`
	Logging  LoggingConfig   `yaml:"logging"`
	Alerting alerting.Config `yaml:"alerting"`
}

var validate = validator.New()

// Default returns the baseline configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			ShutdownTimeoutSeconds: 30,
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 60,
		},
		Logging:  LoggingConfig{Level: "info"},
		Alerting: alerting.DefaultConfig(),
	}
}

// Load reads a YAML config file, layers it over defaults, applies
// environment overrides and validates the result. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if secret := os.Getenv("VAJRA_JWT_SECRET"); secret != "" {
		cfg.Auth.Secret = secret
	}

	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateAlerting(cfg.Alerting); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 30
	}
	if cfg.Auth.TokenTTLMinutes == 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Alerting.Deduplication.WindowSeconds == 0 {
		cfg.Alerting.Deduplication.WindowSeconds = 300
	}
	// A channel with no severity filter receives everything
	if c := cfg.Alerting.Channels.Slack; c != nil && c.MinSeverity == "" {
		c.MinSeverity = alerting.SeverityInfo
	}
	if c := cfg.Alerting.Channels.Discord; c != nil && c.MinSeverity == "" {
		c.MinSeverity = alerting.SeverityInfo
	}
	if c := cfg.Alerting.Channels.Webhook; c != nil && c.MinSeverity == "" {
		c.MinSeverity = alerting.SeverityInfo
	}
	if c := cfg.Alerting.Channels.Email; c != nil && c.MinSeverity == "" {
		c.MinSeverity = alerting.SeverityInfo
	}
}

func validateAlerting(cfg alerting.Config) error {
	check := func(name string, s alerting.Severity) error {
		if s != "" && !alerting.ValidSeverity(s) {
			return fmt.Errorf("%s: unknown minSeverity %q", name, s)
		}
		return nil
	}
	if c := cfg.Channels.Slack; c != nil {
		if c.Enabled && c.WebhookURL == "" {
			return fmt.Errorf("channels.slack: webhookUrl is required when enabled")
		}
		if err := check("channels.slack", c.MinSeverity); err != nil {
			return err
		}
	}
	if c := cfg.Channels.Discord; c != nil {
		if c.Enabled && c.WebhookURL == "" {
			return fmt.Errorf("channels.discord: webhookUrl is required when enabled")
		}
		if err := check("channels.discord", c.MinSeverity); err != nil {
			return err
		}
	}
	if c := cfg.Channels.Webhook; c != nil {
		if c.Enabled && c.URL == "" {
			return fmt.Errorf("channels.webhook: url is required when enabled")
		}
		if err := check("channels.webhook", c.MinSeverity); err != nil {
			return err
		}
	}
	for i, level := range cfg.Escalation.Levels {
		if level.AfterMinutes < 0 {
			return fmt.Errorf("escalation.levels[%d]: afterMinutes must not be negative", i)
		}
	}
	return nil
}
