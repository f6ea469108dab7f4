package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yoohoo-guru/yoohoo-api/config"
	"github.com/yoohoo-guru/yoohoo-api/internal/adapters/devauth"
	"github.com/yoohoo-guru/yoohoo-api/internal/adapters/oidc"
	"github.com/yoohoo-guru/yoohoo-api/internal/adapters/sessiontoken"
	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/statsd"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
	"github.com/yoohoo-guru/yoohoo-api/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth       config.AuthConfig
	Identities ports.IdentityStore
	Clock      ports.Clock // optional, defaults to wall clock
	Logger     *slog.Logger
	Metrics    statsd.Sink // optional
}

// BuildAuthService creates the session issuer/verifier and, depending on the
// configured mode, its federated login provider. A missing or short signing
// secret, or an unusable provider, is an error wrapping
// domainauth.ErrConfiguration; the process must not start without it.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.Identities == nil {
		return nil, fmt.Errorf("%w: identity store is required", domainauth.ErrConfiguration)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := sessiontoken.NewCodec([]byte(cfg.Auth.Session.Secret), cfg.Auth.Session.Issuer)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(ctx, cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Codec:      codec,
		Identities: cfg.Identities,
		Provider:   provider,
		Clock:      cfg.Clock,
		Logger:     logger,
		Metrics:    cfg.Metrics,
	}), nil
}

//nolint:ireturn // provider selection happens at runtime
func buildProvider(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Subject: cfg.DevAuth.Subject,
			Email:   cfg.DevAuth.Email,
			Name:    cfg.DevAuth.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domainauth.ErrConfiguration, err)
		}
		logger.Warn("dev federated login enabled", "email", cfg.DevAuth.Email)
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: oidc provider: %w", domainauth.ErrConfiguration, err)
		}
		return prov, nil

	default:
		return nil, nil
	}
}
