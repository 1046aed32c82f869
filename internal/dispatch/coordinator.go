package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// Notifier announces delivery progress to the order's client.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order models.Order)
}

// Recorder observes dispatch outcomes. A nil Recorder is allowed.
type Recorder interface {
	ObserveAssign(outcome string)
	ObserveComplete(outcome string)
}

// Coordinator hands READY orders to drivers and closes out deliveries.
type Coordinator struct {
	store    orders.Store
	notifier Notifier
	metrics  Recorder
	logg     *logger.Logger
}

func NewCoordinator(store orders.Store, notifier Notifier, metrics Recorder, logg *logger.Logger) (*Coordinator, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Coordinator{store: store, notifier: notifier, metrics: metrics, logg: logg}, nil
}

// ListAvailableDeliveries returns READY orders without a driver, oldest first.
func (c *Coordinator) ListAvailableDeliveries(ctx context.Context) ([]models.Order, error) {
	list, err := c.store.Query(ctx, orders.Filters{
		Statuses:   []enums.OrderStatus{enums.OrderStatusReady},
		Unassigned: true,
	}, orders.OldestFirst)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list available deliveries")
	}
	return list, nil
}

// Assign claims a READY, unassigned order for driverID. The claim is a single
// conditional write, so among concurrent callers exactly one succeeds and the
// rest receive a conflict.
func (c *Coordinator) Assign(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error) {
	if driverID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	ctx = c.logg.WithDriverID(c.logg.WithOrderID(ctx, orderID.String()), driverID)

	delivering := enums.OrderStatusDelivering
	outcome, err := c.store.ConditionalUpdate(ctx, orderID,
		orders.Predicate{Statuses: []enums.OrderStatus{enums.OrderStatusReady}, DriverUnset: true},
		orders.Patch{Status: &delivering, DriverID: &driverID},
	)
	if err != nil {
		c.observeAssign("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign order")
	}
	switch outcome {
	case orders.UpdateNotFound:
		c.observeAssign("not_found")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	case orders.UpdateConflict:
		c.observeAssign("conflict")
		c.logg.Info(ctx, "dispatch.assign.lost_race")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is no longer available")
	}
	c.observeAssign("assigned")

	// The claim is committed; a failed reload must not turn it into an error.
	order, err := c.store.Get(ctx, orderID)
	if err != nil || order == nil {
		c.logg.Error(ctx, "dispatch.assign.reload_failed", err)
		return &models.Order{ID: orderID, Status: delivering, DriverID: &driverID}, nil
	}

	c.logg.Info(ctx, "dispatch.assign.succeeded")
	c.notifier.OrderStatusChanged(ctx, *order)
	return order, nil
}

// Complete marks the caller's DELIVERING order as COMPLETED. Checks run in
// order: existence, driver ownership, then current status.
func (c *Coordinator) Complete(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error) {
	ctx = c.logg.WithDriverID(c.logg.WithOrderID(ctx, orderID.String()), driverID)

	order, err := c.store.Get(ctx, orderID)
	if err != nil {
		c.observeComplete("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		c.observeComplete("not_found")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !order.IsAssignedTo(driverID) {
		c.observeComplete("forbidden")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is assigned to another driver")
	}
	if order.Status != enums.OrderStatusDelivering {
		c.observeComplete("conflict")
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "order is %s, not DELIVERING", order.Status)
	}

	completed := enums.OrderStatusCompleted
	outcome, err := c.store.ConditionalUpdate(ctx, orderID,
		orders.Predicate{Statuses: []enums.OrderStatus{enums.OrderStatusDelivering}, DriverID: &driverID},
		orders.Patch{Status: &completed},
	)
	if err != nil {
		c.observeComplete("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete order")
	}
	switch outcome {
	case orders.UpdateNotFound:
		c.observeComplete("not_found")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	case orders.UpdateConflict:
		c.observeComplete("conflict")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order changed during completion")
	}
	c.observeComplete("completed")

	order.Status = completed
	c.logg.Info(ctx, "dispatch.complete.succeeded")
	c.notifier.OrderStatusChanged(ctx, *order)
	return order, nil
}

func (c *Coordinator) observeAssign(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveAssign(outcome)
	}
}

func (c *Coordinator) observeComplete(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveComplete(outcome)
	}
}
