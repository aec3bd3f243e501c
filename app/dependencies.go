package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/quote-gateway/config"
	"github.com/upb/quote-gateway/repositories"
	"github.com/upb/quote-gateway/repositories/postgres"
	"github.com/upb/quote-gateway/services/carriers"
	"github.com/upb/quote-gateway/services/policies"
	"github.com/upb/quote-gateway/services/quotes"
	"github.com/upb/quote-gateway/services/ratelimit"
	"github.com/upb/quote-gateway/services/webhooks"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when the notification outbox is disabled
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Notifications repositories.NotificationRepository

	// Carriers
	Registry *carriers.Registry
	Governor *ratelimit.Governor
	Caller   *carriers.Caller

	// Services
	Quotes     *quotes.QuoteService
	Policies   *policies.PolicyService
	Dispatcher *webhooks.AsyncNotifier
	Reconciler *webhooks.Reconciler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL (optional)
	if cfg.Database != nil {
		if err := deps.initDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	} else {
		logger.Info("no database configured, notifications are logged only")
	}

	// Initialize carrier registry and callers
	if err := deps.initCarriers(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize carriers: %w", err)
	}

	// Initialize services
	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL outbox connection and repositories
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	repos := factory.NewRepositories()
	d.Notifications = repos.Notifications

	d.Logger.Info("repositories initialized")
	return nil
}

// initCarriers builds the registry from configuration
func (d *Dependencies) initCarriers(cfg *config.Config) error {
	registry, err := carriers.NewRegistryFrom(ProviderConfigs(cfg.Carriers))
	if err != nil {
		return err
	}

	if registry.Count() == 0 {
		d.Logger.Warn("no carriers configured")
	}
	for _, name := range registry.List() {
		_, err := registry.Configured(name)
		d.Logger.Info("carrier registered",
			zap.String("provider", name),
			zap.Bool("configured", err == nil))
	}

	d.Registry = registry
	d.Governor = ratelimit.NewGovernor(registry, d.Logger)
	d.Caller = carriers.NewCaller(registry, d.Governor, &http.Client{}, d.Logger)
	return nil
}

// initServices wires the quote, policy and webhook services
func (d *Dependencies) initServices(cfg *config.Config) error {
	d.Quotes = quotes.NewQuoteService(d.Caller, d.Logger)
	d.Policies = policies.NewPolicyService(d.Caller, d.Logger)

	sinks := webhooks.MultiNotifier{webhooks.NewLogNotifier(d.Logger)}
	if d.Notifications != nil {
		sinks = append(sinks, webhooks.NotifierFunc(d.Notifications.Insert))
	}

	d.Dispatcher = webhooks.NewAsyncNotifier(sinks, d.Logger, webhooks.AsyncConfig{
		BufferSize:  cfg.Notifications.Buffer,
		WorkerCount: cfg.Notifications.Workers,
		Timeout:     cfg.Notifications.Timeout,
	})
	if err := d.Dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start notification dispatcher: %w", err)
	}

	d.Reconciler = webhooks.NewReconciler(d.Registry, d.Dispatcher, d.Logger)
	return nil
}

// ProviderConfigs converts carrier settings into registry entries
func ProviderConfigs(cfgs []config.CarrierConfig) []carriers.ProviderConfig {
	out := make([]carriers.ProviderConfig, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, carriers.ProviderConfig{
			Name:               c.Name,
			BaseURL:            c.BaseURL,
			APIKey:             c.APIKey,
			Timeout:            c.Timeout,
			MaxRetries:         c.MaxRetries,
			RateLimitPerMinute: c.RateLimitPerMinute,
			RoutingCodes:       c.RoutingCodes,
			WebhookSecret:      c.WebhookSecret,
			SignatureHeader:    c.SignatureHeader,
		})
	}
	return out
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued notifications before the outbox goes away
	if d.Dispatcher != nil {
		timeout := d.Config.Notifications.Timeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if timeout <= 0 {
			timeout = time.Second
		}
		if err := d.Dispatcher.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop notification dispatcher: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
