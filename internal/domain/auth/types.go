package auth

// Package auth contains domain-level types for identities, sessions and
// role-based route policies. It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"strings"
	"time"
)

// SessionLifetime is the fixed validity window of an issued session.
const SessionLifetime = 30 * 24 * time.Hour

// Role represents an account's authorization role.
// Keep string form for easy persistence and token claims.
type Role string

const (
	RoleGunu     Role = "gunu"
	RoleGuru     Role = "guru"
	RoleAngel    Role = "angel"
	RoleHeroGuru Role = "hero-guru"
	RoleAdmin    Role = "admin"
)

// Roles returns every valid role in declaration order.
func Roles() []Role {
	return []Role{RoleGunu, RoleGuru, RoleAngel, RoleHeroGuru, RoleAdmin}
}

// ParseRole converts s into a Role. An empty string is reported as
// ErrRoleMissing and never defaulted to some other role.
func ParseRole(s string) (Role, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "", ErrRoleMissing
	}
	for _, r := range Roles() {
		if string(r) == v {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Identity is an account as seen by the session core. Owned by the identity store.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// Session is the claims snapshot carried by a signed session token.
type Session struct {
	ID        string    `json:"id"` // token id (jti), not a server-side key
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession builds a session for identity issued at now.
func NewSession(id string, identity Identity, now time.Time) Session {
	now = now.UTC().Truncate(time.Second)
	return Session{
		ID:        id,
		UserID:    identity.ID,
		Email:     identity.Email,
		Name:      identity.Name,
		Role:      identity.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(SessionLifetime),
	}
}

// Expired reports whether the session is past its expiry at now.
// A session is still valid at exactly ExpiresAt.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SessionContext is the verified, strongly typed view of a session that
// request handlers consume. It is produced only by the verifier.
type SessionContext struct {
	UserID    string
	Email     string
	Name      string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ContextFromSession converts a verified session into a SessionContext.
func ContextFromSession(s Session) *SessionContext {
	return &SessionContext{
		UserID:    s.UserID,
		Email:     s.Email,
		Name:      s.Name,
		Role:      s.Role,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// IsAdmin reports whether the context carries the admin super-role.
func (c *SessionContext) IsAdmin() bool { return c != nil && c.Role == RoleAdmin }

// FederatedIdentity is the principal asserted by an external IdP after a
// federated login. It carries no role; the role comes from the identity store.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}
