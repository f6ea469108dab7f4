package config

import "strings"

const defaultMetricsPrefix = "yoohoo"

// ObservabilityConfig groups configuration for metrics and tracing.
type ObservabilityConfig struct {
	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Tracing TracingConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)
}

// TracingConfig uses the standard OpenTelemetry exporter variables. An empty
// endpoint disables span export.
type TracingConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME"           envDefault:"yoohoo-api"`
}

// MetricsConfig controls emission of gate, login and webhook metrics to StatsD.
type MetricsConfig struct {
	Enabled       bool   `env:"ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"PREFIX"         envDefault:"yoohoo"`
}

// Sanitize trims values; an empty address disables emission.
func (c *MetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if c.Prefix == "" {
		c.Prefix = defaultMetricsPrefix
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}
