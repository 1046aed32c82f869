package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayimolou/ayimolou-backend/api/routes"
	"github.com/ayimolou/ayimolou-backend/internal/dispatch"
	"github.com/ayimolou/ayimolou-backend/internal/drivers"
	"github.com/ayimolou/ayimolou-backend/internal/notifications"
	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/internal/payments"
	"github.com/ayimolou/ayimolou-backend/internal/proximity"
	"github.com/ayimolou/ayimolou-backend/internal/users"
	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/db"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/metrics"
	"github.com/ayimolou/ayimolou-backend/pkg/migrate"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox"
	"github.com/ayimolou/ayimolou-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	notifier, err := notifications.NewDispatcher(dbClient, outboxService, logg,
		notifications.WithNearbyRadius(cfg.Dispatch.ProximityRadiusMeters))
	if err != nil {
		logg.Error(ctx, "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	orderStore := orders.NewStore(dbClient.DB(), logg)

	verifier, err := payments.NewSimulatedVerifier(cfg.Payment, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment verifier", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orderStore, notifier, verifier, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}
	transitions, err := orders.NewTransitionEngine(orderStore, notifier, logg)
	if err != nil {
		logg.Error(ctx, "failed to create transition engine", err)
		os.Exit(1)
	}
	coordinator, err := dispatch.NewCoordinator(orderStore, notifier, metrics.NewDispatchMetrics(prometheus.DefaultRegisterer), logg)
	if err != nil {
		logg.Error(ctx, "failed to create dispatch coordinator", err)
		os.Exit(1)
	}

	detector, err := proximity.NewDetector(orderStore, notifier, cfg.Dispatch.ProximityRadiusMeters, logg)
	if err != nil {
		logg.Error(ctx, "failed to create proximity detector", err)
		os.Exit(1)
	}
	driverRepo := drivers.NewRepository(dbClient.DB())
	throttle, err := drivers.NewThrottle(driverRepo, detector, cfg.Dispatch, logg)
	if err != nil {
		logg.Error(ctx, "failed to create location throttle", err)
		os.Exit(1)
	}
	driversService, err := drivers.NewService(driverRepo, orderStore, throttle, logg)
	if err != nil {
		logg.Error(ctx, "failed to create drivers service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("INSTANCE_ID")
	if id == "" {
		id = "local"
	}
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Users:         usersService,
			Drivers:       driversService,
			DriverGate:    driversService,
			Orders:        ordersService,
			Transitions:   transitions,
			Dispatch:      coordinator,
			Notifications: notificationsService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "api server shutdown failed", err)
		}
	}

	// Location scans can still queue notifications, so drain them first.
	throttle.Wait()
	notifier.Wait()
}
