package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/app"
	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/observability"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	os.Exit(serve(cfg, logger))
}

// serve runs the service and returns the process exit code. Every cleanup
// deferred by run, and the final logger flush, happen before it returns.
func serve(cfg config.Config, logger *zap.Logger) int {
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Error("catalog stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(database.Config{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		LogQueries:   cfg.DBLogQueries,
	})
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.SeedData {
		n, err := database.SeedProducts(ctx, db)
		if err != nil {
			return err
		}
		logger.Info("seeded products", zap.Int("count", n))
	}

	// --- Cache ---
	store, err := openCacheStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	aside := cache.NewAside(store, logger, cfg.CacheOpTimeout)

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithSink(observability.NewZapSink(logger)),
		services.WithTTLs(cfg.CacheProductTTL, cfg.CachePageTTL),
	}

	// --- Product events ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange}, logger)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		opts = append(opts, services.WithPublisher(mqClient))
	} else {
		logger.Info("RABBITMQ_URL not set, product events disabled")
	}

	productService := services.NewProductService(db, aside, opts...)

	if mqClient != nil {
		if err := mqClient.Consume(ctx, productService.HandleProductEvent); err != nil {
			return err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}

	// --- HTTP ---
	fiberApp := app.New(app.Deps{
		Products: productService,
		Database: handlers.PingFunc(sqlDB.PingContext),
		Cache:    aside,
		Logger:   logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort))
		serveErr <- fiberApp.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
	return nil
}

// openCacheStore builds the configured cache backend. An unreachable Redis
// is logged but not fatal; the cache layer fails open.
func openCacheStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		store := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, serving from the database until it recovers",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		return store, nil
	case config.CacheMemory:
		mc := cache.DefaultMemoryConfig()
		if cfg.CacheMemoryCapacity > 0 {
			mc.Capacity = cfg.CacheMemoryCapacity
		}
		if ttl := max(cfg.CacheProductTTL, cfg.CachePageTTL); ttl > mc.MaxTTL {
			mc.MaxTTL = ttl
		}
		return cache.NewMemoryStore(mc), nil
	case config.CacheNone:
		return cache.NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.CacheBackend)
	}
}
