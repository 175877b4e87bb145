package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/mailer"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	catalogFiles := flag.String("catalog", "", "comma-separated catalogue files (.jsonl or .jsonl.gz)")
	s3Prefix := flag.String("s3-prefix", "catalog/", "key prefix for catalogue files in the images bucket")
	adminEmail := flag.String("admin-email", "", "create an administrator with this email")
	adminPassword := flag.String("admin-password", "", "administrator password")
	adminName := flag.String("admin-name", "Administrator", "administrator display name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if *catalogFiles != "" {
		if err := importCatalog(ctx, cfg, strings.Split(*catalogFiles, ","), *s3Prefix, repository.NewProductRepository(pool, logger), logger); err != nil {
			return err
		}
	}

	if *adminEmail != "" {
		users := service.NewUserService(
			repository.NewUserRepository(pool, logger),
			auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			mailer.NewLogMailer(logger),
			cfg.Email.ResetURLPrefix,
			logger,
		)
		admin, err := users.EnsureAdmin(ctx, &model.RegisterRequest{
			Name:     *adminName,
			Email:    *adminEmail,
			Password: *adminPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to ensure administrator: %w", err)
		}
		logger.Info().Str("user_id", admin.ID.String()).Str("email", admin.Email).Msg("administrator ready")
	}

	return nil
}

// importCatalog reads catalogue files from S3 when images live there, falling
// back to the local file system for each file that cannot be fetched.
func importCatalog(ctx context.Context, cfg *config.Config, paths []string, s3Prefix string, products repository.ProductRepository, logger zerolog.Logger) error {
	var s3Loader catalog.Loader
	if cfg.Images.S3Enabled {
		client, err := storage.NewS3Client(ctx, cfg.Images.Region)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 client, reading catalogue from local files only")
		} else {
			s3Loader = catalog.NewS3Loader(client, cfg.Images.Bucket, logger)
		}
	}
	loader := catalog.NewFallbackLoader(s3Loader, catalog.NewFileLoader(logger), s3Prefix, logger)

	for i := range paths {
		paths[i] = strings.TrimSpace(paths[i])
	}

	n, err := catalog.NewImporter(loader, products, logger).Import(ctx, paths)
	logger.Info().Int("products", n).Msg("catalogue import finished")
	if err != nil {
		return fmt.Errorf("catalogue import failed: %w", err)
	}

	// The API caches the product list; drop it so imported products show up.
	if cfg.Redis.Addr != "" {
		c, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to redis, product cache not invalidated")
			return nil
		}
		defer c.Close()
		if err := c.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate product cache")
		}
	}
	return nil
}
