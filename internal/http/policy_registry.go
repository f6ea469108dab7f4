package httpx

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/metrics"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/statsd"
)

// PolicyRegistry holds the route policies declared at startup. A protected
// route can only be mounted through Guard, so a route without a valid policy
// fails before the server starts listening.
type PolicyRegistry struct {
	mu       sync.RWMutex
	policies map[string]domainauth.RoutePolicy
	metrics  statsd.Sink
}

// NewPolicyRegistry returns an empty registry.
func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{policies: make(map[string]domainauth.RoutePolicy)}
}

// UseMetrics makes every gate mounted through the registry count its
// decisions, tagged with the route name. Call before mounting routes.
func (reg *PolicyRegistry) UseMetrics(sink statsd.Sink) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.metrics = sink
}

// ProfileRoute is the registry key for a tenant's profile page.
func ProfileRoute(tenant string) string {
	return "profile@" + tenant
}

// Register validates and stores the policy for route. Errors wrap
// domainauth.ErrConfiguration.
func (reg *PolicyRegistry) Register(route string, roles []domainauth.Role, fallback string) error {
	if route == "" {
		return fmt.Errorf("%w: route name is required", domainauth.ErrConfiguration)
	}
	policy, err := domainauth.NewRoutePolicy(roles, fallback)
	if err != nil {
		return fmt.Errorf("route %q: %w", route, err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, dup := reg.policies[route]; dup {
		return fmt.Errorf("%w: route %q registered twice", domainauth.ErrConfiguration, route)
	}
	reg.policies[route] = policy
	return nil
}

// Policy returns the policy for route.
func (reg *PolicyRegistry) Policy(route string) (domainauth.RoutePolicy, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	p, ok := reg.policies[route]
	return p, ok
}

// Guard returns the gate middleware for a registered route.
func (reg *PolicyRegistry) Guard(route string) (func(http.Handler) http.Handler, error) {
	p, ok := reg.Policy(route)
	if !ok {
		return nil, fmt.Errorf("%w: no policy registered for route %q", domainauth.ErrConfiguration, route)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !reg.enforce(w, r, route, p) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func (reg *PolicyRegistry) enforce(
	w http.ResponseWriter,
	r *http.Request,
	route string,
	p domainauth.RoutePolicy,
) bool {
	d := enforce(w, r, p)
	reg.mu.RLock()
	sink := reg.metrics
	reg.mu.RUnlock()
	metrics.EmitGateDecision(sink, route, d)
	return d == domainauth.Allowed
}

// Routes lists registered route names in sorted order.
func (reg *PolicyRegistry) Routes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]string, 0, len(reg.policies))
	for k := range reg.policies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
