// Package main запускает HTTP-сервер витрины.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/streetwear-storefront/internal/config"
	"github.com/mmeshcher/streetwear-storefront/internal/events"
	"github.com/mmeshcher/streetwear-storefront/internal/handler"
	"github.com/mmeshcher/streetwear-storefront/internal/middleware"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
	"github.com/mmeshcher/streetwear-storefront/internal/shipping"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	store, err := openStore(cfg)
	if err != nil {
		sugar.Fatalw("store initialization error", "backend", cfg.StoreBackend, "error", err.Error())
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher, err = events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			sugar.Fatalw("amqp initialization error", "error", err.Error())
		}
	}
	defer publisher.Close()

	opts := service.Options{
		Logger:            logger,
		Events:            publisher,
		ResetTTL:          cfg.ResetCodeTTL,
		PollInterval:      cfg.ShippingPollInterval,
		AdminSeedPassword: cfg.AdminSeedPassword,
	}
	if cfg.ShippingFeedAddress != "" {
		opts.Shipments = shipping.NewClient(cfg.ShippingFeedAddress)
	}

	svc := service.NewService(store, opts)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.EnsureAdminSeed(ctx); err != nil {
		sugar.Fatalw("admin seed error", "error", err.Error())
	}

	clients := middleware.NewClientMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, clients)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое обновление статусов доставки
	g.Go(func() error {
		return svc.StartShipmentUpdates(ctx)
	})

	g.Go(func() error {
		sugar.Infow("starting storefront server", "addr", cfg.RunAddress, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return repository.NewPostgresStore(cfg.DatabaseURI)
	case config.BackendRedis:
		return repository.NewRedisStore(repository.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return repository.NewMemoryStore(), nil
	}
}
