package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voltmart/storefront/pkg/health"
	"github.com/voltmart/storefront/pkg/httpclient"
	pkgkafka "github.com/voltmart/storefront/pkg/kafka"

	"github.com/voltmart/storefront/internal/cache"
	"github.com/voltmart/storefront/internal/cart"
	"github.com/voltmart/storefront/internal/catalog"
	"github.com/voltmart/storefront/internal/config"
	"github.com/voltmart/storefront/internal/event"
	handler "github.com/voltmart/storefront/internal/handler/http"
	"github.com/voltmart/storefront/internal/identity"
	"github.com/voltmart/storefront/internal/order"
	"github.com/voltmart/storefront/internal/recent"
	"github.com/voltmart/storefront/internal/upstream"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Read cache backend.
	var (
		store cache.Store
		rdb   *redis.Client
	)
	switch cfg.CacheBackend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		store = cache.NewRedisStore(rdb)
	default:
		store = cache.NewMemoryStore()
	}

	// Kafka producer, optional.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled() {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		producer = pkgkafka.NewProducer(kafkaCfg, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Commerce API clients. Idempotent calls retry behind a circuit
	// breaker; the non-idempotent ones (adding a cart line, creating an
	// order) get a single-attempt client so a timeout can never turn
	// into a double-applied request.
	idempotent := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:         cfg.CommerceAPITimeout,
			MaxRetries:      3,
			RetryWaitMin:    time.Second,
			RetryWaitMax:    5 * time.Second,
			MaxConnsPerHost: 100,
		}),
		httpclient.DefaultCircuitBreakerConfig("commerce-api"),
		logger,
	)
	oneShot := httpclient.New(httpclient.NoRetryConfig(cfg.OrderTimeout))
	commerce := upstream.New(cfg.CommerceAPIURL, idempotent, oneShot, logger)

	// Build the dependency graph.
	var kafkaProducer event.Producer
	if producer != nil {
		kafkaProducer = producer
	}
	events := event.NewPublisher(kafkaProducer, logger)
	registry := cart.NewRegistry(commerce, logger)
	orders := order.NewService(commerce, events, logger)
	catalogSvc := catalog.NewService(commerce, store, cache.TTLConfig{
		Listings: cfg.ListingsTTL,
		Default:  cfg.CacheTTL,
		Taxonomy: cfg.TaxonomyTTL,
	}, logger)
	tracker, err := recent.NewTracker(cfg.RecentViewsLimit)
	if err != nil {
		return nil, fmt.Errorf("init recent tracker: %w", err)
	}
	provider := identity.NewJWTProvider(cfg.JWTSecret)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("commerce-api", func(ctx context.Context) error {
		return commerce.Ping(ctx)
	})
	if rdb != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Registry:       registry,
		Orders:         orders,
		Catalog:        catalogSvc,
		Recent:         tracker,
		Events:         events,
		Identity:       provider,
		Health:         healthHandler,
		Logger:         logger,
		LoginURL:       cfg.LoginURL,
		AllowedOrigins: cfg.CORSOrigins(),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
