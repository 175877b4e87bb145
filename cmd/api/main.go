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

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/mailer"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/telemetry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("version", cfg.Telemetry.ServiceVersion).Msg("starting storefront API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
		if err := shutdownMeter(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to shut down meter provider")
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	productCache := newProductCache(ctx, cfg.Redis, logger)
	defer productCache.Close()

	images, uploadsDir, err := newImageStore(ctx, cfg.Images, logger)
	if err != nil {
		return err
	}

	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		logger.Info().Msg("no kafka brokers configured, order events are not published")
		publisher = events.NewNopPublisher()
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	var mail mailer.Mailer
	if cfg.Email.ServiceURL != "" {
		mail = mailer.NewHTTPMailer(cfg.Email.ServiceURL, cfg.Email.From, nil, logger)
	} else {
		logger.Info().Msg("no email service configured, outgoing mail is logged")
		mail = mailer.NewLogMailer(logger)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	productService := service.NewProductService(productRepo, images, productCache, logger)
	cartService := service.NewCartService(cartRepo, productRepo, metrics, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, publisher, metrics, cfg.Order.ShippingFee, logger)
	userService := service.NewUserService(userRepo, tokens, mail, cfg.Email.ResetURLPrefix, logger)

	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(userService, cfg.Auth.CookieSecure, logger),
		Product: handler.NewProductHandler(productService, logger),
		Cart:    handler.NewCartHandler(cartService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
	}

	opts := router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metricsHandler,
		UploadsDir:     uploadsDir,
		HealthCheck:    pool.Ping,
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerS, cfg.RateLimit.Burst,
			cfg.RateLimit.AuthPerS, cfg.RateLimit.AuthBurst,
			"/api/v1/auth/",
		)
		go limiter.Run(ctx)
		opts.Limiter = limiter
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.New(handlers, tokens, opts, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newProductCache falls back to no caching when Redis is unset or unreachable.
func newProductCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) cache.ProductCache {
	if cfg.Addr == "" {
		logger.Info().Msg("redis not configured, product cache disabled")
		return cache.NewNopCache()
	}

	c, err := cache.NewRedisCache(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.TTL, logger)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("failed to connect to redis, product cache disabled")
		return cache.NewNopCache()
	}
	return c
}

// newImageStore returns the configured store and, for local storage, the
// directory the router serves under /uploads/.
func newImageStore(ctx context.Context, cfg config.ImagesConfig, logger zerolog.Logger) (storage.ImageStore, string, error) {
	if cfg.S3Enabled {
		client, err := storage.NewS3Client(ctx, cfg.Region)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return storage.NewS3Store(client, cfg.Bucket, cfg.Region, cfg.Prefix, cfg.PublicBaseURL, logger), "", nil
	}

	store, err := storage.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL, logger)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize local image store: %w", err)
	}
	logger.Info().Str("dir", cfg.LocalDir).Msg("using local file system for product images (S3 disabled)")
	return store, cfg.LocalDir, nil
}
