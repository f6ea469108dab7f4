package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/yoohoo-guru/yoohoo-api/config"
	httpx "github.com/yoohoo-guru/yoohoo-api/internal/http"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router for the configured services.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg.Services.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	cookies, err := httpx.NewCookiePolicy(httpx.CookieOptions{
		Production:   appCfg.IsProduction(),
		ParentDomain: appCfg.HTTP.CookieDomain,
	})
	if err != nil {
		return nil, err
	}

	services := httpx.RouterServices{
		Auth:         cfg.Services.Auth,
		Policies:     cfg.Services.Policies,
		Cookies:      cookies,
		Tenants:      httpx.TenantResolver{BaseDomain: appCfg.HTTP.BaseDomain},
		HealthChecks: healthChecks(cfg.Services.DB, cfg.Services.Redis),
		Logger:       logger,
	}
	// typed nil pointers must not reach the router's optional interfaces
	if cfg.Services.Posts != nil {
		services.Posts = cfg.Services.Posts
	}
	if cfg.Services.Webhooks != nil {
		services.Webhooks = cfg.Services.Webhooks
	}
	router, err := httpx.NewRouter(services)
	if err != nil {
		return nil, err
	}
	return otelhttp.NewHandler(router, appCfg.Observability.Tracing.ServiceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/readyz"
		}),
	), nil
}

func healthChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := make(map[string]httpx.HealthCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func newServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP runs server until ctx is canceled or the listener fails, then
// shuts it down gracefully.
func ServeHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
