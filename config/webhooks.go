package config

import (
	"strings"
	"time"
)

// WebhookConfig controls the payment webhook endpoint.
type WebhookConfig struct {
	// StripeSecret is the signing secret of the webhook endpoint. The
	// endpoint is not mounted when it is empty.
	StripeSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	Tolerance    time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
}

// Sanitize trims the secret and restores the default tolerance.
func (w *WebhookConfig) Sanitize() {
	w.StripeSecret = strings.TrimSpace(w.StripeSecret)
	if w.Tolerance <= 0 {
		w.Tolerance = 5 * time.Minute
	}
}

// Enabled reports whether the webhook endpoint should be mounted.
func (w *WebhookConfig) Enabled() bool { return w.StripeSecret != "" }
