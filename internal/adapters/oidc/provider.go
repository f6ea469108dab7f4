package oidc

// Package oidc provides the federated login adapter (OpenID Connect over OAuth2).

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

// DefaultScope is requested when no scope is configured.
const DefaultScope = "openid email profile"

// Provider implements ports.AuthProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a 30s client
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider. It performs discovery once.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	p := &Provider{httpClient: httpClient}

	ctx = gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	scope := config.Scope
	if strings.TrimSpace(scope) == "" {
		scope = DefaultScope
	}
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(scope),
		Endpoint:     op.Endpoint(),
	}
	return p, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured one; it must match the IdP registration exactly
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.FederatedIdentity, error) {
	if in.Code == "" {
		return domainauth.FederatedIdentity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.FederatedIdentity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.FederatedIdentity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.FederatedIdentity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.FederatedIdentity{}, fmt.Errorf("extract id_token: %w", err)
	}
	if claims.Email == "" {
		ui, uiErr := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if uiErr != nil {
			return domainauth.FederatedIdentity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		var extra idTokenClaims
		if cErr := ui.Claims(&extra); cErr != nil {
			return domainauth.FederatedIdentity{}, fmt.Errorf("decode user info: %w", cErr)
		}
		fillFromUserInfo(&claims, extra)
	}
	return claims.identity(), nil
}

type idTokenClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Nonce         string `json:"nonce"`
}

func (c idTokenClaims) identity() domainauth.FederatedIdentity {
	name := c.Name
	if name == "" {
		name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	}
	return domainauth.FederatedIdentity{
		Subject:       c.Sub,
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		EmailVerified: c.EmailVerified,
		Name:          name,
	}
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idTokenClaims, error) {
	var claims idTokenClaims
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return claims, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return claims, fmt.Errorf("verify id_token: %w", err)
	}
	if err := idTok.Claims(&claims); err != nil {
		return claims, fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Nonce != expectedNonce {
		return claims, errors.New("invalid nonce")
	}
	return claims, nil
}

// fillFromUserInfo fills missing fields from a UserInfo payload without overwriting.
func fillFromUserInfo(c *idTokenClaims, ui idTokenClaims) {
	if c.Email == "" {
		c.Email = ui.Email
		c.EmailVerified = ui.EmailVerified
	}
	if c.Name == "" {
		c.Name = ui.Name
	}
	if c.GivenName == "" {
		c.GivenName = ui.GivenName
	}
	if c.FamilyName == "" {
		c.FamilyName = ui.FamilyName
	}
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
