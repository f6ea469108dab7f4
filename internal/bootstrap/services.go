package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yoohoo-guru/yoohoo-api/config"
	redisadapter "github.com/yoohoo-guru/yoohoo-api/internal/adapters/redis"
	"github.com/yoohoo-guru/yoohoo-api/internal/data"
	httpx "github.com/yoohoo-guru/yoohoo-api/internal/http"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/statsd"
	"github.com/yoohoo-guru/yoohoo-api/internal/observability/tracing"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
	"github.com/yoohoo-guru/yoohoo-api/internal/service"
)

// ServiceContainer holds the wired services the HTTP layer serves.
type ServiceContainer struct {
	Auth     *service.AuthService
	Posts    *service.PostService
	Webhooks *service.PaymentWebhookService // nil when no webhook secret is configured
	Policies *httpx.PolicyRegistry
	Metrics  *statsd.Client // drops everything when metrics are disabled

	DB    *sql.DB
	Redis redis.UniversalClient
}

// ServiceDeps contains the infrastructure services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // optional
	Logger      *slog.Logger
}

// NewServices wires repositories, adapters and services. Every
// configuration problem is returned rather than degrading silently.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsSink := newMetricsSink(ctx, cfg, logger)

	accounts := data.NewAccountRepoWithOptions(deps.DB, data.AccountRepoOptions{BcryptCost: cfg.Auth.BcryptCost})
	posts := data.NewPostRepo(deps.DB)

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:       cfg.Auth,
		Identities: accounts,
		Logger:     logger,
		Metrics:    metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	policies, err := BuildPolicyRegistry(cfg.HTTP.TenantProfileRoles)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build route policies: %w", err)
	}
	policies.UseMetrics(metricsSink)

	webhooks, err := buildWebhookService(cfg.Webhooks, deps.RedisClient, metricsSink, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build webhook service: %w", err)
	}

	return ServiceContainer{
		Auth:     auth,
		Posts:    service.NewPostService(service.PostServiceOptions{Store: posts}),
		Webhooks: webhooks,
		Policies: policies,
		Metrics:  metricsSink,
		DB:       deps.DB,
		Redis:    deps.RedisClient,
	}, nil
}

// newMetricsSink dials StatsD when enabled. A dial failure is logged and
// metrics are dropped; it never blocks startup.
func newMetricsSink(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) *statsd.Client {
	m := cfg.Observability.Metrics
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled:    m.IsEnabled(),
		Address:    m.StatsdAddress,
		Prefix:     m.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"env": string(cfg.Env)},
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func buildWebhookService(
	cfg config.WebhookConfig,
	rdb redis.UniversalClient,
	sink statsd.Sink,
	logger *slog.Logger,
) (*service.PaymentWebhookService, error) {
	if !cfg.Enabled() {
		logger.Warn("payment webhook disabled: STRIPE_WEBHOOK_SECRET not set")
		return nil, nil
	}
	var deduper ports.EventDeduper
	if rdb != nil {
		deduper = redisadapter.NewEventDeduper(rdb)
	} else {
		logger.Warn("payment webhook redelivery detection disabled: redis not configured")
	}
	return service.NewPaymentWebhookService(service.PaymentWebhookOptions{
		Secret:    cfg.StripeSecret,
		Deduper:   deduper,
		Logger:    logger,
		Metrics:   sink,
		Tolerance: cfg.Tolerance,
	})
}

// ServiceOrchestrationConfig contains what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown serves HTTP until SIGINT/SIGTERM or a server
// failure, then shuts down gracefully.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildHTTPHandler(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build http handler: %w", err)
	}

	defer func() {
		if cerr := cfg.Services.Metrics.Close(); cerr != nil {
			logger.Warn("close statsd client failed", "error", cerr)
		}
	}()

	tc := cfg.Config.Observability.Tracing
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    tc.Endpoint,
		Insecure:    tc.Insecure,
		ServiceName: tc.ServiceName,
		Environment: string(cfg.Config.Env),
	}, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if serr := shutdownTracing(flushCtx); serr != nil {
			logger.Warn("tracing shutdown failed", "error", serr)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return ServeHTTP(ctx, newServer(cfg.Config.HTTP.Addr, handler), logger)
}
