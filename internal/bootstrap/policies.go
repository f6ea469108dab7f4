package bootstrap

import (
	"fmt"
	"sort"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	httpx "github.com/yoohoo-guru/yoohoo-api/internal/http"
)

// BuildPolicyRegistry declares every gated route: the dashboard for all roles,
// the admin console for admins, and one profile policy per tenant. Any invalid
// declaration fails startup.
func BuildPolicyRegistry(tenantRoles map[string]string) (*httpx.PolicyRegistry, error) {
	reg := httpx.NewPolicyRegistry()
	if err := reg.Register(httpx.RouteDashboard, domainauth.Roles(), domainauth.DefaultFallbackPath); err != nil {
		return nil, err
	}
	if err := reg.Register(httpx.RouteAdmin, []domainauth.Role{domainauth.RoleAdmin}, domainauth.DefaultFallbackPath); err != nil {
		return nil, err
	}

	tenants := make([]string, 0, len(tenantRoles))
	for t := range tenantRoles {
		tenants = append(tenants, t)
	}
	sort.Strings(tenants)
	for _, tenant := range tenants {
		roles, err := domainauth.ParseRoles(tenantRoles[tenant])
		if err != nil {
			return nil, fmt.Errorf("%w: tenant %q: %w", domainauth.ErrConfiguration, tenant, err)
		}
		if err := reg.Register(httpx.ProfileRoute(tenant), roles, domainauth.DefaultFallbackPath); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
