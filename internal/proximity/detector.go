package proximity

import (
	"context"
	"fmt"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// Notifier tells a client that their driver is close.
type Notifier interface {
	DriverNearby(ctx context.Context, order models.Order)
}

// Detector fires the one-time "driver nearby" alert for a driver's active
// deliveries.
type Detector struct {
	store        orders.Store
	notifier     Notifier
	radiusMeters float64
	logg         *logger.Logger
}

func NewDetector(store orders.Store, notifier Notifier, radiusMeters float64, logg *logger.Logger) (*Detector, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("proximity radius must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Detector{store: store, notifier: notifier, radiusMeters: radiusMeters, logg: logg}, nil
}

// Scan checks each DELIVERING order of driverID against position and returns
// how many nearby alerts were sent. The flag is set with a guarded write so
// concurrent scans alert at most once per order.
func (d *Detector) Scan(ctx context.Context, driverID string, position geo.Point) (int, error) {
	active, err := d.store.Query(ctx, orders.Filters{
		DriverID: driverID,
		Statuses: []enums.OrderStatus{enums.OrderStatusDelivering},
	}, orders.NewestFirst)
	if err != nil {
		return 0, fmt.Errorf("query active deliveries: %w", err)
	}

	sent := 0
	for _, order := range active {
		if order.NearbyNotified || !order.HasDeliveryCoordinates() {
			continue
		}
		target := geo.Point{Lat: *order.DeliveryLat, Lng: *order.DeliveryLng}
		if !geo.IsWithinRadius(position, target, d.radiusMeters) {
			continue
		}

		notified, unset := true, false
		outcome, err := d.store.ConditionalUpdate(ctx, order.ID,
			orders.Predicate{
				Statuses:       []enums.OrderStatus{enums.OrderStatusDelivering},
				DriverID:       &driverID,
				NearbyNotified: &unset,
			},
			orders.Patch{NearbyNotified: &notified},
		)
		if err != nil {
			return sent, fmt.Errorf("flag order %s nearby: %w", order.ID, err)
		}
		if outcome != orders.UpdateApplied {
			continue
		}

		order.NearbyNotified = true
		d.logg.Info(d.logg.WithOrderID(d.logg.WithDriverID(ctx, driverID), order.ID.String()), "proximity.driver_nearby")
		d.notifier.DriverNearby(ctx, order)
		sent++
	}
	return sent, nil
}
