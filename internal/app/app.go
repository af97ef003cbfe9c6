package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bitforgehq/storefront/internal/auth"
	"github.com/bitforgehq/storefront/internal/config"
	"github.com/bitforgehq/storefront/internal/event"
	"github.com/bitforgehq/storefront/internal/gateway"
	gwmock "github.com/bitforgehq/storefront/internal/gateway/mock"
	gwstripe "github.com/bitforgehq/storefront/internal/gateway/stripe"
	handler "github.com/bitforgehq/storefront/internal/handler/http"
	"github.com/bitforgehq/storefront/internal/repository/postgres"
	redisrepo "github.com/bitforgehq/storefront/internal/repository/redis"
	"github.com/bitforgehq/storefront/internal/service"
	"github.com/bitforgehq/storefront/migrations"
	"github.com/bitforgehq/storefront/pkg/database"
	"github.com/bitforgehq/storefront/pkg/health"
	"github.com/bitforgehq/storefront/pkg/httpclient"
	pkgkafka "github.com/bitforgehq/storefront/pkg/kafka"
	"github.com/bitforgehq/storefront/pkg/middleware"
	"github.com/bitforgehq/storefront/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TracingSample,
	}, "storefront")
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		Database:        cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		ConnectRetries:  5,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "storefront"))

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr))

	producer := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Repositories.
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	wishlistRepo := postgres.NewWishlistRepository(pool)
	inquiryRepo := postgres.NewInquiryRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL())

	eventProducer := event.NewProducer(producer, logger)

	// Payment gateway.
	var gw gateway.Gateway
	switch cfg.PaymentGateway {
	case "stripe":
		baseClient := httpclient.New(httpclient.DefaultConfig(), logger)
		breakerClient := httpclient.NewBreakerClient(baseClient,
			httpclient.DefaultBreakerConfig("stripe"), logger)
		gw = gwstripe.New(breakerClient, gwstripe.Config{
			APIKey:  cfg.StripeAPIKey,
			BaseURL: cfg.StripeBaseURL,
		}, logger)
	default:
		gw = gwmock.New()
	}
	logger.Info("payment gateway initialized", slog.String("gateway", gw.Name()))

	// Services.
	svcs := handler.Services{
		Checkout: service.NewCheckoutService(orderRepo, cartRepo, gw, eventProducer,
			cfg.TaxRateDecimal(), cfg.Currency, logger),
		Orders:   service.NewOrderService(orderRepo, logger),
		Catalog:  service.NewCatalogService(productRepo, logger),
		Cart:     service.NewCartService(cartRepo, productRepo, logger),
		Wishlist: service.NewWishlistService(wishlistRepo, productRepo, logger),
		Inquiry:  service.NewInquiryService(inquiryRepo, eventProducer, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(
		svcs,
		healthHandler,
		auth.NewTokenValidator(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}),
		middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		cfg.RateLimitRPS,
		cfg.RateLimitBurst,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully stops all components in dependency order: the HTTP
// server drains first, then the tracer flushes spans from those requests,
// then the producer and stores close.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error

	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}

	if err := a.tracerShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
	}

	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
	}

	if err := a.redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis client: %w", err))
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
