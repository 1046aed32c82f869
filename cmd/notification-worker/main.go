package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ayimolou/ayimolou-backend/internal/notifications"
	"github.com/ayimolou/ayimolou-backend/internal/users"
	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/db"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/metrics"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox/idempotency"
	"github.com/ayimolou/ayimolou-backend/pkg/pubsub"
	"github.com/ayimolou/ayimolou-backend/pkg/redis"
)

const serviceKind = "notification-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	deliveries, err := idempotency.NewLedger(redisClient, notifications.WorkerName, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to build delivery ledger", err)
		os.Exit(1)
	}
	pusher, err := notifications.NewPubSubPusher(pubsubClient.PushPublisher())
	if err != nil {
		logg.Error(ctx, "failed to build push publisher", err)
		os.Exit(1)
	}
	consumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Repository:   notifications.NewRepository(dbClient.DB()),
		Tokens:       users.NewRepository(dbClient.DB()),
		Pusher:       pusher,
		Subscription: pubsubClient.NotificationSubscription(),
		Deliveries:   deliveries,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build notification consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification worker", err)
		os.Exit(1)
	}

	metrics.Serve(ctx, cfg.App.MetricsAddr, logg)
	logg.Info(ctx, "starting notification worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "notification worker shutting down gracefully")
}
