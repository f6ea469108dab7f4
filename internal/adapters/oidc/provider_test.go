package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

// createTestProvider creates a test provider with a mocked discovery endpoint.
func createTestProvider(t *testing.T) *Provider {
	t.Helper()

	issuer := ""
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		doc := DiscoveryDocument{
			Issuer:                issuer,
			AuthorizationEndpoint: "https://example.com/auth",
			TokenEndpoint:         issuer + "/token",
			UserinfoEndpoint:      "https://example.com/userinfo",
			JwksURI:               "https://example.com/jwks",
		}
		_ = json.NewEncoder(w).Encode(doc)
	})
	discoveryServer := httptest.NewServer(handler)
	t.Cleanup(discoveryServer.Close)
	issuer = discoveryServer.URL

	provider, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/oauth/callback",
		DiscoveryURL: discoveryServer.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return provider
}

func TestNewProvider_Success(t *testing.T) {
	provider := createTestProvider(t)
	assert.Equal(t, "https://example.com/auth", provider.config.Endpoint.AuthURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, provider.config.Scopes)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name:   "missing client ID",
			config: ProviderConfig{ClientSecret: "secret", RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com"},
			errMsg: "client ID is required",
		},
		{
			name:   "missing client secret",
			config: ProviderConfig{ClientID: "client", RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com"},
			errMsg: "client secret is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{ClientID: "client", ClientSecret: "secret", DiscoveryURL: "http://example.com"},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{ClientID: "client", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
			errMsg: "discovery URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	provider := createTestProvider(t)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{RedirectURL: "/dashboard"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.Contains(t, authURL, "https://example.com/auth")
	assert.Contains(t, authURL, "client_id=test-client")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, _, _, err = provider.Begin(context.Background(), ports.BeginInput{})
	require.Error(t, err)
}

func TestProvider_Exchange_ValidationErrors(t *testing.T) {
	provider := createTestProvider(t)

	tests := []struct {
		name   string
		input  ports.ExchangeInput
		errMsg string
	}{
		{"missing code", ports.ExchangeInput{State: "state", Nonce: "nonce"}, "authorization code is required"},
		{"missing state", ports.ExchangeInput{Code: "code", Nonce: "nonce"}, "state is required"},
		{"missing nonce", ports.ExchangeInput{Code: "code", State: "state"}, "nonce is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.Exchange(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Exchange_TokenEndpointFailure(t *testing.T) {
	provider := createTestProvider(t)

	// the discovery server answers /token with a discovery document, which is not a token
	_, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	b, err := generateRandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGetIDTokenFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	idTok, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", idTok)

	_, err = getIDTokenFromToken((&oauth2.Token{}).WithExtra(map[string]any{"not_id": "x"}))
	require.ErrorContains(t, err, "missing id_token")

	_, err = getIDTokenFromToken(nil)
	require.ErrorContains(t, err, "nil token")
}

func TestClaimsIdentity(t *testing.T) {
	c := idTokenClaims{Sub: "sub-1", Email: " Angel@Example.com ", EmailVerified: true, GivenName: "Ann", FamilyName: "Gel"}
	id := c.identity()
	assert.Equal(t, "sub-1", id.Subject)
	assert.Equal(t, "angel@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Ann Gel", id.Name)
}

func TestFillFromUserInfo(t *testing.T) {
	c := idTokenClaims{Sub: "sub-1"}
	fillFromUserInfo(&c, idTokenClaims{Email: "a@example.com", EmailVerified: true, Name: "A"})
	assert.Equal(t, "a@example.com", c.Email)
	assert.True(t, c.EmailVerified)
	assert.Equal(t, "A", c.Name)

	keep := idTokenClaims{Email: "keep@example.com", Name: "Keep"}
	fillFromUserInfo(&keep, idTokenClaims{Email: "other@example.com", Name: "Other"})
	assert.Equal(t, "keep@example.com", keep.Email)
	assert.Equal(t, "Keep", keep.Name)
}
