package devauth

// Package devauth provides a config-driven AuthProvider for local development.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

// CallbackPath is where Begin sends the browser back to.
const CallbackPath = "/auth/oauth/callback"

// Config controls the dev auth provider. Email must belong to an existing account.
type Config struct {
	Subject string
	Email   string
	Name    string
}

// Provider implements ports.AuthProvider for local development.
// It short-circuits the OAuth flow by redirecting straight to our own callback
// with locally generated state and nonce. Exchange ignores the code and
// asserts the configured, verified email.
type Provider struct {
	identity domainauth.FederatedIdentity
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "dev:" + email
	}
	return &Provider{
		identity: domainauth.FederatedIdentity{
			Subject:       subject,
			Email:         email,
			EmailVerified: true,
			Name:          cfg.Name,
		},
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	return CallbackPath + "?code=dev&state=" + state, state, nonce, nil
}

// Exchange ignores code/state/nonce (the handler validates them) and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.FederatedIdentity, error) {
	return p.identity, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
