package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Registry keys of the fixed role-gated pages.
const (
	RouteDashboard = "dashboard"
	RouteAdmin     = "admin"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthServiceInterface
	Posts    PostServiceInterface    // optional: blog listing
	Webhooks WebhookServiceInterface // optional: payment webhooks
	Policies *PolicyRegistry
	Cookies  CookiePolicy
	Tenants  TenantResolver
	// HealthChecks back /readyz; /healthz is always live.
	HealthChecks map[string]HealthCheck
	Logger       *slog.Logger
}

// NewRouter creates the HTTP router. It fails when a gated route has no
// registered policy, so misconfiguration surfaces at startup.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil {
		return nil, errors.New("router requires an auth service")
	}
	if services.Policies == nil {
		return nil, errors.New("router requires a policy registry")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth, Cookies: services.Cookies, Logger: logger}
	pageHandlers := &PageHandlers{Federated: services.Auth.FederatedEnabled(), Logger: logger}
	profiles := NewProfileLoader(services.Auth)
	profileHandlers := &ProfileHandlers{
		Registry: services.Policies,
		Tenants:  services.Tenants,
		Profiles: profiles,
		Logger:   logger,
	}

	registerAuthRoutes(mux, authHandlers, services.Auth.FederatedEnabled())
	if err := registerPageRoutes(mux, pageHandlers, services.Policies); err != nil {
		return nil, err
	}
	mux.Handle("GET /profile", profiles.Middleware(http.HandlerFunc(profileHandlers.Profile)))

	if services.Posts != nil {
		postHandlers := &PostHandlers{Svc: services.Posts, Tenants: services.Tenants}
		mux.HandleFunc("GET /api/blog/posts", postHandlers.List)
	}
	if services.Webhooks != nil {
		webhookHandlers := &WebhookHandlers{Svc: services.Webhooks, Logger: logger}
		mux.HandleFunc("POST /api/webhooks/stripe", webhookHandlers.Stripe)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.HealthChecks, logger))

	var handler http.Handler = mux
	handler = OptionalSession(services.Auth, services.Cookies)(handler)
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, federated bool) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/session", h.Session)
	if federated {
		mux.HandleFunc("GET /auth/oauth/login", h.OAuthLogin)
		mux.HandleFunc("GET /auth/oauth/callback", h.OAuthCallback)
	}
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, reg *PolicyRegistry) error {
	mux.HandleFunc("GET /login", h.Login)

	gated := []struct {
		route   string
		pattern string
		handler http.HandlerFunc
	}{
		{RouteDashboard, "GET /dashboard", h.Dashboard},
		{RouteAdmin, "GET /admin", h.Admin},
	}
	for _, g := range gated {
		guard, err := reg.Guard(g.route)
		if err != nil {
			return fmt.Errorf("mount %s: %w", g.pattern, err)
		}
		mux.Handle(g.pattern, guard(g.handler))
	}
	return nil
}
