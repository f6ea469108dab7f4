package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

func TestNewCookiePolicy_Production(t *testing.T) {
	p, err := NewCookiePolicy(CookieOptions{Production: true, ParentDomain: ".yoohoo.guru"})
	require.NoError(t, err)

	assert.Equal(t, SecureSessionCookieName, p.Name)
	assert.Equal(t, "yoohoo.guru", p.Domain)
	assert.True(t, p.Secure)
	assert.Equal(t, domainauth.SessionLifetime, p.MaxAge)

	expires := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	c := p.SessionCookie("tok", expires)
	assert.Equal(t, "__Secure-yoohoo.session-token", c.Name)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 30*24*60*60, c.MaxAge)
	assert.Equal(t, expires, c.Expires)
}

func TestNewCookiePolicy_Development(t *testing.T) {
	p, err := NewCookiePolicy(CookieOptions{})
	require.NoError(t, err)

	assert.Equal(t, SessionCookieName, p.Name)
	assert.Empty(t, p.Domain, "host-only outside production")
	assert.False(t, p.Secure)
}

func TestNewCookiePolicy_RejectsBadDomains(t *testing.T) {
	tests := []struct {
		name string
		opts CookieOptions
	}{
		{"production without domain", CookieOptions{Production: true}},
		{"public suffix", CookieOptions{Production: true, ParentDomain: "guru"}},
		{"multi-label public suffix", CookieOptions{ParentDomain: "co.uk"}},
		{"hosting suffix", CookieOptions{ParentDomain: "github.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCookiePolicy(tt.opts)
			require.ErrorIs(t, err, domainauth.ErrConfiguration)
		})
	}
}

func TestCookiePolicy_SetAndClearMirrorAttributes(t *testing.T) {
	p, err := NewCookiePolicy(CookieOptions{Production: true, ParentDomain: "yoohoo.guru"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.SetSession(rec, "tok", time.Now().Add(time.Hour))
	p.ClearSession(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	set, cleared := cookies[0], cookies[1]
	assert.Equal(t, set.Name, cleared.Name)
	assert.Equal(t, set.Domain, cleared.Domain)
	assert.Equal(t, set.Path, cleared.Path)
	assert.Equal(t, set.Secure, cleared.Secure)
	assert.Equal(t, -1, cleared.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, p.Token(req))
	req.AddCookie(set)
	assert.Equal(t, "tok", p.Token(req))
}
