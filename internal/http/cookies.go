package httpx

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

const (
	// SessionCookieName is used outside production, where cookies are not Secure.
	SessionCookieName = "yoohoo.session-token"
	// SecureSessionCookieName is used in production. Browsers only accept the
	// __Secure- prefix on Secure cookies.
	SecureSessionCookieName = "__Secure-" + SessionCookieName

	oauthCookieMaxAge = 10 * time.Minute
	oauthCookiePath   = "/auth/oauth"
)

// CookieOptions configures NewCookiePolicy.
type CookieOptions struct {
	Production bool
	// ParentDomain is the registrable domain shared by all subdomains
	// (e.g. "yoohoo.guru"). Required in production; empty means host-only.
	ParentDomain string
}

// CookiePolicy describes how the session cookie is written, read and cleared.
// The same policy must be used by every subdomain for sessions to be shared.
type CookiePolicy struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// NewCookiePolicy builds the policy and validates the parent domain against the
// public suffix list so a cookie can never be scoped to e.g. ".guru".
func NewCookiePolicy(opts CookieOptions) (CookiePolicy, error) {
	p := CookiePolicy{
		Name:   SessionCookieName,
		Secure: opts.Production,
		MaxAge: domainauth.SessionLifetime,
	}
	if opts.Production {
		p.Name = SecureSessionCookieName
	}

	domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(opts.ParentDomain)), ".")
	if domain == "" {
		if opts.Production {
			return CookiePolicy{}, fmt.Errorf("%w: cookie parent domain is required in production", domainauth.ErrConfiguration)
		}
		return p, nil
	}
	if err := validateCookieDomain(domain); err != nil {
		return CookiePolicy{}, err
	}
	p.Domain = domain
	return p, nil
}

func validateCookieDomain(domain string) error {
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
		return fmt.Errorf("%w: cookie domain %q is a public suffix", domainauth.ErrConfiguration, domain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return fmt.Errorf("%w: cookie domain %q: %w", domainauth.ErrConfiguration, domain, err)
	}
	return nil
}

// Token returns the raw session cookie value, or "" when absent.
func (p CookiePolicy) Token(r *http.Request) string {
	c, err := r.Cookie(p.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// SessionCookie builds the cookie carrying a freshly issued token.
func (p CookiePolicy) SessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     "/",
		Domain:   p.Domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   int(p.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSession writes the session cookie.
func (p CookiePolicy) SetSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, p.SessionCookie(token, expiresAt))
}

// ClearSession expires the session cookie. Attributes mirror SetSession so
// browsers match and delete the same cookie.
func (p CookiePolicy) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setFlowCookie writes a short-lived, host-only cookie used during the OAuth flow.
func (p CookiePolicy) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		MaxAge:   int(oauthCookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p CookiePolicy) clearFlowCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     oauthCookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
