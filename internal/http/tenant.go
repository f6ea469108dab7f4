package httpx

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// TenantResolver maps request hosts such as "angel.yoohoo.guru" to the tenant
// subdomain ("angel") under BaseDomain.
type TenantResolver struct {
	BaseDomain string
}

// Resolve returns the tenant label for host. Hosts that are the base domain
// itself, outside it, or nested more than one label deep do not resolve.
func (t TenantResolver) Resolve(host string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(host))
	if hh, _, err := net.SplitHostPort(h); err == nil {
		h = hh
	}
	h = strings.TrimSuffix(h, ".")
	if h == "" || net.ParseIP(h) != nil {
		return "", false
	}

	base := strings.TrimPrefix(strings.ToLower(t.BaseDomain), ".")
	if base == "" {
		// Without a configured base, use the registrable domain of the host.
		etld1, err := publicsuffix.EffectiveTLDPlusOne(h)
		if err != nil {
			return "", false
		}
		base = etld1
	}

	sub, ok := strings.CutSuffix(h, "."+base)
	if !ok || sub == "" || strings.Contains(sub, ".") {
		return "", false
	}
	return sub, true
}

// tenantFromHost resolves the tenant of r, honouring X-Forwarded-Host when set
// by the edge proxy.
func (t TenantResolver) tenantFromHost(host, forwarded string) (string, bool) {
	if forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = forwarded[:i]
		}
		return t.Resolve(forwarded)
	}
	return t.Resolve(host)
}
