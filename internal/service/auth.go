package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/metrics"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/statsd"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
// Codec and Identities are required; Provider enables federated login.
type AuthServiceOptions struct {
	Codec      ports.SessionCodec
	Identities ports.IdentityStore
	Provider   ports.AuthProvider
	Clock      ports.Clock
	Logger     *slog.Logger
	Metrics    statsd.Sink // optional
}

// AuthService issues and verifies signed session tokens. It keeps no
// server-side session state.
type AuthService struct {
	codec      ports.SessionCodec
	identities ports.IdentityStore
	provider   ports.AuthProvider
	now        func() time.Time
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Codec == nil {
		panic("AuthService requires a SessionCodec")
	}
	if opts.Identities == nil {
		panic("AuthService requires an IdentityStore")
	}
	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		codec:      opts.Codec,
		identities: opts.Identities,
		provider:   opts.Provider,
		now:        now,
		logger:     logger.With("component", "auth"),
		metrics:    opts.Metrics,
	}
}

// IssuedSession is a freshly minted session and its signed token.
type IssuedSession struct {
	Token   string
	Session domainauth.Session
}

// Issue mints a 30-day session for identity. The role is snapshotted into
// the token; identities without a valid role are refused.
func (s *AuthService) Issue(ctx context.Context, identity domainauth.Identity) (*IssuedSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity.ID == "" {
		return nil, errors.New("identity id is required")
	}
	role, err := domainauth.ParseRole(string(identity.Role))
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	identity.Role = role

	sess := domainauth.NewSession(uuid.NewString(), identity, s.now())
	token, err := s.codec.Encode(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	s.logger.InfoContext(ctx, "session issued", "user_id", sess.UserID, "role", sess.Role, "expires_at", sess.ExpiresAt)
	metrics.EmitSessionIssued(s.metrics, sess.Role)
	return &IssuedSession{Token: token, Session: sess}, nil
}

// Login authenticates email/password through the identity store and issues
// a session. Bad credentials surface as domainauth.ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, email, password string) (issued *IssuedSession, err error) {
	defer func() { metrics.EmitLogin(s.metrics, metrics.MethodPassword, err) }()
	if email == "" || password == "" {
		return nil, domainauth.ErrAuthenticationFailed
	}
	identity, authErr := s.identities.Authenticate(ctx, email, password)
	if authErr != nil {
		if errors.Is(authErr, domainauth.ErrAuthenticationFailed) {
			return nil, domainauth.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("authenticate: %w", authErr)
	}
	return s.Issue(ctx, identity)
}

// Register creates an account and issues its first session.
func (s *AuthService) Register(
	ctx context.Context,
	req *model.CreateAccountRequest,
) (acc *model.Account, issued *IssuedSession, err error) {
	defer func() { metrics.EmitLogin(s.metrics, metrics.MethodRegister, err) }()
	if req == nil {
		return nil, nil, apperrors.Validation("request is required")
	}
	req.Normalize()
	if vErr := req.Validate(); vErr != nil {
		return nil, nil, apperrors.Validation(vErr.Error())
	}
	acc, err = s.identities.Create(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	issued, err = s.Issue(ctx, acc.Identity())
	if err != nil {
		return nil, nil, err
	}
	return acc, issued, nil
}

// Verify decodes a raw cookie value into a SessionContext. An empty value is
// domainauth.ErrNoSession; decoding failures keep their distinct causes
// (ErrInvalidSession, ErrExpiredSession). The token is never re-signed.
func (s *AuthService) Verify(_ context.Context, raw string) (*domainauth.SessionContext, error) {
	if raw == "" {
		return nil, domainauth.ErrNoSession
	}
	sess, err := s.codec.Decode(raw, s.now())
	if err != nil {
		return nil, err
	}
	return domainauth.ContextFromSession(sess), nil
}

// VerifySession collapses Verify to "session or no session". The failure
// reason is logged and never returned.
func (s *AuthService) VerifySession(ctx context.Context, raw string) *domainauth.SessionContext {
	sc, err := s.Verify(ctx, raw)
	if raw != "" {
		metrics.EmitSessionVerify(s.metrics, err)
	}
	if err != nil {
		if !errors.Is(err, domainauth.ErrNoSession) {
			s.logger.DebugContext(ctx, "session rejected", "reason", rejectionReason(err))
		}
		return nil
	}
	return sc
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domainauth.ErrExpiredSession):
		return "expired"
	case errors.Is(err, domainauth.ErrInvalidSession):
		return "invalid"
	default:
		return "error"
	}
}

// Account loads the stored account behind a verified session.
func (s *AuthService) Account(ctx context.Context, userID string) (*model.Account, error) {
	if userID == "" {
		return nil, apperrors.NotFound("account not found")
	}
	return s.identities.GetByID(ctx, userID)
}

// FederatedEnabled reports whether an external identity provider is configured.
func (s *AuthService) FederatedEnabled() bool { return s.provider != nil }

// BeginLoginResult contains the result of beginning a federated login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates a federated flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no identity provider configured", domainauth.ErrConfiguration)
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a federated login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteOAuthLogin exchanges the authorization code, resolves the asserted
// email to a stored account and issues a session for it. Federated
// principals never receive a role of their own; unknown or unverified
// emails fail authentication.
func (s *AuthService) CompleteOAuthLogin(ctx context.Context, input CompleteLoginInput) (issued *IssuedSession, err error) {
	defer func() { metrics.EmitLogin(s.metrics, metrics.MethodOAuth, err) }()
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no identity provider configured", domainauth.ErrConfiguration)
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	fed, exErr := s.provider.Exchange(ctx, ports.ExchangeInput(input))
	if exErr != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", exErr)
	}
	if fed.Email == "" || !fed.EmailVerified {
		s.logger.WarnContext(ctx, "federated login rejected: email not verified", "subject", fed.Subject)
		return nil, domainauth.ErrAuthenticationFailed
	}

	acc, lookupErr := s.identities.GetByEmail(ctx, fed.Email)
	if lookupErr != nil {
		if apperrors.IsNotFound(lookupErr) {
			s.logger.InfoContext(ctx, "federated login rejected: no account", "subject", fed.Subject)
			return nil, domainauth.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("lookup account: %w", lookupErr)
	}
	return s.Issue(ctx, acc.Identity())
}
