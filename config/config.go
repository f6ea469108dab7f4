package config

import (
	"errors"
	"fmt"
	"strings"
)

// Environment names the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTest        Environment = "test"
	EnvProduction  Environment = "production"
)

// UnmarshalText implements encoding.TextUnmarshaler for Environment.
func (e *Environment) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "development", "dev":
		*e = EnvDevelopment
	case "test":
		*e = EnvTest
	case "production", "prod":
		*e = EnvProduction
	default:
		return fmt.Errorf("invalid APP_ENV: %q (valid options: development, test, production)", v)
	}
	return nil
}

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Session signing and login provider configuration
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server, cookie and tenant configuration
//   - webhooks.go: Payment webhook configuration
//   - observability.go: StatsD metrics configuration
type AppConfig struct {
	// Env selects production cookie behaviour (Secure, __Secure- prefix,
	// shared parent domain). Set APP_ENV=production in deployed environments.
	Env Environment `env:"APP_ENV" envDefault:"development"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Payment webhook configuration
	Webhooks WebhookConfig

	// Metrics configuration
	Observability ObservabilityConfig
}

// IsProduction reports whether production cookie rules apply.
func (c *AppConfig) IsProduction() bool { return c.Env == EnvProduction }

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Webhooks.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports every configuration problem that would prevent a safe
// start. It is called after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(c.IsProduction()); err != nil {
		errs = append(errs, err)
	}
	if err := c.HTTP.Validate(c.IsProduction()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
