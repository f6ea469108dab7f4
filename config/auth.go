package config

import (
	"errors"
	"fmt"
	"strings"
)

// MinSessionSecretLen is the minimum length of AUTH_SESSION_SECRET in bytes.
const MinSessionSecretLen = 32

// AuthMode represents the federated login mode for the application.
type AuthMode string

const (
	// AuthModeNone disables federated login; only email/password login is served.
	AuthModeNone AuthMode = "none"
	// AuthModeOAuth uses OAuth/OIDC for federated login.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev federated login (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "none", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: none, oauth, mock)", v)
	}
}

// SessionConfig controls signing of session tokens.
type SessionConfig struct {
	// Secret is the HMAC key shared by every subdomain. Required.
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER" envDefault:"yoohoo.guru"`
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/oauth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid email profile"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the mock federated identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Subject string `env:"SUBJECT"`
	Email   string `env:"EMAIL"   envDefault:"dev@example.com"`
	Name    string `env:"NAME"    envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Session SessionConfig `envPrefix:"AUTH_SESSION_"`

	// Mode determines which federated login provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"none"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// BcryptCost is the password hashing cost for new accounts.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// Sanitize trims values and clamps the bcrypt cost to a usable range.
func (a *AuthConfig) Sanitize() {
	a.Session.Issuer = strings.TrimSpace(a.Session.Issuer)
	a.OAuth.DiscoveryURL = strings.TrimSpace(a.OAuth.DiscoveryURL)
	a.DevAuth.Email = strings.TrimSpace(a.DevAuth.Email)
	if a.Mode == "" {
		a.Mode = AuthModeNone
	}
	if a.BcryptCost < 10 {
		a.BcryptCost = 10
	}
	if a.BcryptCost > 14 {
		a.BcryptCost = 14
	}
}

// Validate checks the signing secret and the selected login mode.
func (a *AuthConfig) Validate(production bool) error {
	var errs []error
	switch {
	case a.Session.Secret == "":
		errs = append(errs, errors.New("AUTH_SESSION_SECRET is required"))
	case len(a.Session.Secret) < MinSessionSecretLen:
		errs = append(errs, fmt.Errorf("AUTH_SESSION_SECRET must be at least %d bytes", MinSessionSecretLen))
	}

	switch a.Mode {
	case AuthModeMock:
		if production {
			errs = append(errs, errors.New("AUTH_MODE=mock is not allowed in production"))
		}
	case AuthModeOAuth:
		if a.OAuth.DiscoveryURL == "" || a.OAuth.ClientID == "" || a.OAuth.ClientSecret == "" {
			errs = append(errs, errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
		}
	}
	return errors.Join(errs...)
}
