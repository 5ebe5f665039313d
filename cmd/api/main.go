package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/cartstore"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/internal/checkout"
	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/migrate"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
	"github.com/angelmondragon/storefront-cart/pkg/remote"
)

const shutdownTimeout = 15 * time.Second

type backends struct {
	store   cartstore.Store
	db      *db.Client
	redis   *redis.Client
	pingers map[string]controllers.Pinger
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registry)

	b, err := openBackends(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cart store", err)
		os.Exit(1)
	}

	session, err := cartstore.NewSessionStore(b.store, cartstore.WithLogger(logg), cartstore.WithMetrics(cartMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	catalogClient, pricingClient, submitter, err := collaborators(cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to create collaborator clients", err)
		os.Exit(1)
	}

	hydrator, err := catalog.NewHydrator(catalogClient, logg, cartMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create hydrator", err)
		os.Exit(1)
	}

	reconciler, err := pricing.NewReconciler(pricing.ReconcilerParams{
		Pricer:  pricingClient,
		Coster:  pricingClient,
		Timeout: cfg.Checkout.QuoteTimeout,
		Logger:  logg,
		Metrics: cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(session, hydrator, hydrator, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	surfaces := checkout.NewRegistry()
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:          cartService,
		Hydrator:      hydrator,
		Quoter:        reconciler,
		Submitter:     submitter,
		Registry:      surfaces,
		SubmitTimeout: cfg.Checkout.SubmitTimeout,
		Logger:        logg,
		Metrics:       cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"cart_store": cfg.CartStore.Backend,
	})

	go runJanitor(ctx, logg, cfg.Checkout, surfaces, session)

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			Pingers:         b.pingers,
			Gatherer:        registry,
			CartService:     cartService,
			CheckoutService: checkoutService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx, server, session, b); err != nil {
		logg.Error(shutdownCtx, "shutdown incomplete", err)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// openBackends connects the configured cart store and the clients it depends on.
func openBackends(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backends, error) {
	b := &backends{pingers: map[string]controllers.Pinger{}}

	switch cfg.CartStore.Backend {
	case config.CartStoreBackendGorm:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client, migrate.DefaultDir); err != nil {
			return nil, multierr.Append(fmt.Errorf("migrations: %w", err), client.Close())
		}
		store, err := cartstore.NewGormStore(client.DB(), cfg.CartStore.Namespace)
		if err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		b.db, b.store = client, store
		b.pingers["db"] = client

	case config.CartStoreBackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		store, err := cartstore.NewRedisStore(client, cfg.CartStore.Namespace)
		if err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		b.redis, b.store = client, store
		b.pingers["redis"] = client

	case config.CartStoreBackendMemory:
		logg.Warn(ctx, "using in-memory cart store, carts are lost on restart")
		b.store = cartstore.NewMemoryStore()

	default:
		return nil, fmt.Errorf("unsupported cart store backend %q", cfg.CartStore.Backend)
	}
	return b, nil
}

func collaborators(cfg *config.Config) (*catalog.HTTPClient, *pricing.HTTPClient, *checkout.HTTPSubmitter, error) {
	catalogRemote, err := remote.NewClient(cfg.Catalog.BaseURL,
		remote.WithAPIKey(cfg.Catalog.APIKey),
		remote.WithTimeout(cfg.Catalog.Timeout),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("catalog: %w", err)
	}
	pricingRemote, err := remote.NewClient(cfg.Pricing.BaseURL,
		remote.WithAPIKey(cfg.Pricing.APIKey),
		remote.WithTimeout(cfg.Pricing.Timeout),
		remote.WithErrorCode(pkgerrors.CodeQuoteFailure),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pricing: %w", err)
	}
	ordersRemote, err := remote.NewClient(cfg.Orders.BaseURL,
		remote.WithAPIKey(cfg.Orders.APIKey),
		remote.WithTimeout(cfg.Orders.Timeout),
		remote.WithErrorCode(pkgerrors.CodeSubmissionFailure),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("orders: %w", err)
	}

	catalogClient, err := catalog.NewHTTPClient(catalogRemote)
	if err != nil {
		return nil, nil, nil, err
	}
	pricingClient, err := pricing.NewHTTPClient(pricingRemote)
	if err != nil {
		return nil, nil, nil, err
	}
	submitter, err := checkout.NewHTTPSubmitter(ordersRemote)
	if err != nil {
		return nil, nil, nil, err
	}
	return catalogClient, pricingClient, submitter, nil
}

// runJanitor closes idle checkout surfaces and retries cart writes that only
// reached the in-memory overlay.
func runJanitor(ctx context.Context, logg *logger.Logger, cfg config.CheckoutConfig, surfaces *checkout.Registry, session *cartstore.SessionStore) {
	if cfg.JanitorInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := surfaces.Sweep(cfg.SurfaceIdleTTL); n > 0 {
				logg.Info(logg.WithField(ctx, "closed", n), "swept idle checkout surfaces")
			}
			if err := session.Sync(ctx); err != nil {
				logg.Warn(ctx, "cart store resync incomplete: "+err.Error())
			}
		}
	}
}

func shutdown(ctx context.Context, server *http.Server, session *cartstore.SessionStore, b *backends) error {
	err := server.Shutdown(ctx)
	err = multierr.Append(err, session.Sync(ctx))
	if b.db != nil {
		err = multierr.Append(err, b.db.Close())
	}
	if b.redis != nil {
		err = multierr.Append(err, b.redis.Close())
	}
	return err
}
