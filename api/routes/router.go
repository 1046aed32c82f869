package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayimolou/ayimolou-backend/api/controllers"
	ordercontrollers "github.com/ayimolou/ayimolou-backend/api/controllers/orders"
	"github.com/ayimolou/ayimolou-backend/api/middleware"
	"github.com/ayimolou/ayimolou-backend/internal/notifications"
	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/db"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/redis"
)

// Redis is the slice of the redis client the HTTP layer depends on.
type Redis interface {
	redis.Pinger
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Users         controllers.UsersService
	Drivers       controllers.DriversService
	DriverGate    ordercontrollers.DriverGate
	Orders        orders.Service
	Transitions   ordercontrollers.StatusUpdater
	Dispatch      ordercontrollers.Dispatcher
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient Redis,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	locationPolicy := middleware.RateLimitPolicy{
		Name:   "driver-location",
		Window: cfg.RateLimit.LocationWindow,
		Limit:  cfg.RateLimit.LocationLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.Idempotency(redisClient, cfg.Eventing.RequestIdempotencyTTL, logg)).
				Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Get("/my-orders", ordercontrollers.MyOrders(svc.Orders, logg))
			r.Get("/vendor-orders", ordercontrollers.VendorOrders(svc.Orders, logg))
			r.Get("/driver-orders", ordercontrollers.DriverOrders(svc.Orders, logg))
			r.Get("/available-deliveries", ordercontrollers.AvailableDeliveries(svc.Dispatch, svc.DriverGate, logg))
			r.Post("/verify-payment", ordercontrollers.VerifyPayment(svc.Orders, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svc.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleVendor)).
					Patch("/status", ordercontrollers.UpdateStatus(svc.Transitions, logg))

				assign := ordercontrollers.Assign(svc.Dispatch, svc.DriverGate, logg)
				r.Post("/assign", assign)
				r.Patch("/assign", assign)

				complete := ordercontrollers.Complete(svc.Dispatch, logg)
				r.Post("/complete", complete)
				r.Patch("/complete", complete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/sync", controllers.SyncUser(svc.Users, logg))
			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", controllers.GetUser(svc.Users, logg))
				r.With(middleware.RateLimit(locationPolicy, redisClient, logg)).
					Patch("/driver-location", controllers.UpdateDriverLocation(svc.Drivers, logg))
				r.Patch("/driver-availability", controllers.UpdateDriverAvailability(svc.Drivers, logg))
				r.Get("/notifications", controllers.ListNotifications(svc.Notifications, logg))
			})
		})

		r.Get("/drivers/{uid}/location", controllers.GetDriverLocation(svc.Drivers, logg))
		r.Patch("/notifications/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
	})

	return r
}
