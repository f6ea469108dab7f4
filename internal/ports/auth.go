package ports

// Package ports defines interfaces (hexagonal ports) for auth and content behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
)

// BeginInput carries inputs for initiating a federated auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes a federated authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the asserted identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.FederatedIdentity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// IdentityStore is the account store the session core reads identities from.
type IdentityStore interface {
	// Authenticate checks email and password. Bad credentials return domainauth.ErrAuthenticationFailed.
	Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error)
}

// SessionCodec signs and verifies session tokens.
type SessionCodec interface {
	Encode(sess domainauth.Session) (string, error)
	// Decode returns domainauth.ErrInvalidSession or domainauth.ErrExpiredSession on failure.
	Decode(token string, now time.Time) (domainauth.Session, error)
}

// Clock supplies the current time. Injected so expiry checks are testable.
type Clock interface {
	Now() time.Time
}
