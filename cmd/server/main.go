package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/app"
	"github.com/Freeeeeet/therapy_booking/internal/cache"
	"github.com/Freeeeeet/therapy_booking/internal/config"
	"github.com/Freeeeeet/therapy_booking/internal/controller"
	"github.com/Freeeeeet/therapy_booking/internal/metrics"
	"github.com/Freeeeeet/therapy_booking/internal/repository"
	"github.com/Freeeeeet/therapy_booking/internal/service"
	"github.com/Freeeeeet/therapy_booking/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting therapy booking service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("directory_cache", cfg.CacheEnabled()))

	// База данных
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	if cfg.RunMigrations {
		migrator, err := app.NewMigrator(pool, migrations.FS, logger)
		if err != nil {
			return err
		}
		if err := migrator.Run(ctx); err != nil {
			return err
		}
		if err := migrator.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}

	// Кэш каталога включается только при заданном REDIS_ADDR
	var directoryCache service.DirectoryCache
	if cfg.CacheEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, directory cache will miss", zap.Error(err))
		}
		directoryCache = cache.NewDirectoryCache(client, cfg.DirectoryCacheTTL)
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	profileRepo := repository.NewProfileRepository(pool)
	therapistRepo := repository.NewTherapistRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	identityService := service.NewIdentityService(profileRepo, cfg.JWTSecret, logger)
	directoryService := service.NewDirectoryService(therapistRepo, directoryCache, bookingMetrics, logger)
	bookingService := service.NewBookingService(bookingRepo, therapistRepo, bookingMetrics, logger)

	api := controller.NewController(controller.Config{
		Identity:       identityService,
		Directory:      directoryService,
		Bookings:       bookingService,
		Metrics:        bookingMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		DB:             pool,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
