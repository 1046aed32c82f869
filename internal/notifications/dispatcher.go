package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (uuid.UUID, error)
}

// Dispatcher queues push notifications through the outbox. Every send runs
// on its own goroutine, detached from the caller's cancellation; failures are
// logged and dropped.
type Dispatcher struct {
	db           txRunner
	emitter      emitter
	logg         *logger.Logger
	nearbyRadius float64
	wg           sync.WaitGroup
}

// DispatcherOption tweaks message content.
type DispatcherOption func(*Dispatcher)

// WithNearbyRadius sets the distance quoted in NEARBY messages. It should
// match the proximity detector's radius.
func WithNearbyRadius(meters float64) DispatcherOption {
	return func(d *Dispatcher) {
		if meters > 0 {
			d.nearbyRadius = meters
		}
	}
}

func NewDispatcher(db txRunner, emitter emitter, logg *logger.Logger, opts ...DispatcherOption) (*Dispatcher, error) {
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	d := &Dispatcher{db: db, emitter: emitter, logg: logg, nearbyRadius: defaultNearbyRadiusMeters}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// OrderCreated alerts the vendor about a new order.
func (d *Dispatcher) OrderCreated(ctx context.Context, order models.Order) {
	d.send(ctx, newOrderMessage(order))
}

// OrderStatusChanged tells the client about the order's new status.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order models.Order) {
	d.send(ctx, statusUpdateMessage(order))
}

// DriverNearby tells the client the driver is close to the delivery address.
func (d *Dispatcher) DriverNearby(ctx context.Context, order models.Order) {
	d.send(ctx, nearbyMessage(order, d.nearbyRadius))
}

// Wait blocks until queued sends have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, msg payloads.NotificationRequestedEvent) {
	bg := d.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"order_id":          msg.OrderID.String(),
		"recipient_id":      msg.RecipientID,
		"notification_type": msg.Type,
	})
	if msg.RecipientID == "" {
		d.logg.Warn(bg, "notifications.dispatch.missing_recipient")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.db.WithTx(bg, func(tx *gorm.DB) error {
			_, err := d.emitter.Emit(bg, tx, outbox.DomainEvent{
				EventType:     enums.EventNotificationRequested,
				AggregateType: enums.AggregateOrder,
				AggregateID:   msg.OrderID,
				Data:          msg,
				Version:       1,
			})
			return err
		})
		if err != nil {
			d.logg.Error(bg, "notifications.dispatch.enqueue_failed", err)
		}
	}()
}
