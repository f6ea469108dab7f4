package config

import (
	"errors"
	"strings"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseDomain is the registrable domain whose subdomains are tenants
	// (e.g. "yoohoo.guru" for angel.yoohoo.guru).
	BaseDomain string `env:"APP_BASE_DOMAIN" envDefault:"yoohoo.guru"`

	// CookieDomain is the parent domain the session cookie is scoped to.
	// Required in production; leave empty in development for host-only cookies.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// TenantProfileRoles maps each tenant subdomain to the comma-separated
	// roles allowed on its profile page, e.g. "angel=angel;guru=guru,hero-guru".
	TenantProfileRoles map[string]string `env:"TENANT_PROFILE_ROLES" envDefault:"gunu=gunu;guru=guru;angel=angel;heroes=hero-guru" envSeparator:";" envKeyValSeparator:"="`
}

// Sanitize normalises domains and tenant names.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	h.BaseDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.BaseDomain)), ".")
	h.CookieDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.CookieDomain)), ".")

	tenants := make(map[string]string, len(h.TenantProfileRoles))
	for k, v := range h.TenantProfileRoles {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			tenants[k] = strings.TrimSpace(v)
		}
	}
	h.TenantProfileRoles = tenants
}

// Validate checks cookie scoping rules that depend on the environment.
func (h *HTTPConfig) Validate(production bool) error {
	var errs []error
	if production && h.CookieDomain == "" {
		errs = append(errs, errors.New("APP_COOKIE_DOMAIN is required in production"))
	}
	if h.CookieDomain != "" && h.BaseDomain != "" &&
		h.BaseDomain != h.CookieDomain && !strings.HasSuffix(h.BaseDomain, "."+h.CookieDomain) {
		errs = append(errs, errors.New("APP_BASE_DOMAIN must be within APP_COOKIE_DOMAIN"))
	}
	return errors.Join(errs...)
}
