package auth

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	// DefaultLoginPath is where unauthenticated visitors are sent.
	DefaultLoginPath = "/login"
	// DefaultFallbackPath is where authenticated visitors with the wrong role are sent.
	DefaultFallbackPath = "/dashboard"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// DeniedLogin means there is no valid session; redirect to login.
	DeniedLogin Decision = iota
	// DeniedRole means the session role is not permitted; redirect to the fallback.
	DeniedRole
	// Allowed means the request may proceed.
	Allowed
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedRole:
		return "denied_role"
	default:
		return "denied_login"
	}
}

// RoutePolicy declares the roles permitted on a protected route and where
// wrong-role visitors are redirected. Construct with NewRoutePolicy.
type RoutePolicy struct {
	roles    map[Role]struct{}
	fallback string
}

// NewRoutePolicy validates roles and fallback. An empty fallback selects
// DefaultFallbackPath. Errors wrap ErrConfiguration.
func NewRoutePolicy(roles []Role, fallback string) (RoutePolicy, error) {
	if len(roles) == 0 {
		return RoutePolicy{}, fmt.Errorf("%w: route policy requires at least one role", ErrConfiguration)
	}
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return RoutePolicy{}, fmt.Errorf("%w: unknown role %q in route policy", ErrConfiguration, r)
		}
		set[r] = struct{}{}
	}

	if fallback == "" {
		fallback = DefaultFallbackPath
	}
	u, err := url.Parse(fallback)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return RoutePolicy{}, fmt.Errorf("%w: fallback %q must be a relative path", ErrConfiguration, fallback)
	}

	return RoutePolicy{roles: set, fallback: fallback}, nil
}

// MustRoutePolicy is NewRoutePolicy for static declarations; it panics on error.
func MustRoutePolicy(fallback string, roles ...Role) RoutePolicy {
	p, err := NewRoutePolicy(roles, fallback)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseRoles parses a comma-separated role list, e.g. "angel,admin".
func ParseRoles(s string) ([]Role, error) {
	var out []Role
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Permits reports whether role is in the declared set. It does not apply the admin bypass.
func (p RoutePolicy) Permits(role Role) bool {
	_, ok := p.roles[role]
	return ok
}

// Roles returns the declared roles sorted for stable output.
func (p RoutePolicy) Roles() []Role {
	out := make([]Role, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fallback returns the wrong-role redirect target.
func (p RoutePolicy) Fallback() string {
	if p.fallback == "" {
		return DefaultFallbackPath
	}
	return p.fallback
}

// Authorize decides whether ctx may access a route guarded by policy.
// Admin is permitted on every policy.
func Authorize(ctx *SessionContext, policy RoutePolicy) Decision {
	if ctx == nil {
		return DeniedLogin
	}
	if ctx.Role == RoleAdmin || policy.Permits(ctx.Role) {
		return Allowed
	}
	return DeniedRole
}
