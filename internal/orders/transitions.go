package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// vendorTransitions is the closed allow-list of vendor-driven status changes.
// READY to DELIVERING and DELIVERING to COMPLETED belong to dispatch.
var vendorTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusAccepted, enums.OrderStatusCancelled},
	enums.OrderStatusAccepted:  {enums.OrderStatusPreparing},
	enums.OrderStatusPreparing: {enums.OrderStatusReady},
}

// CanTransition reports whether a vendor may move an order from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range vendorTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusNotifier announces committed status changes to the order's client.
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, order models.Order)
}

// TransitionEngine applies vendor status updates.
type TransitionEngine struct {
	store    Store
	notifier StatusNotifier
	logg     *logger.Logger
}

func NewTransitionEngine(store Store, notifier StatusNotifier, logg *logger.Logger) (*TransitionEngine, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &TransitionEngine{store: store, notifier: notifier, logg: logg}, nil
}

// UpdateStatus moves the order to target on behalf of its vendor. Checks run
// in order: existence, ownership, then the allow-list. The write is guarded
// by the status observed during the checks.
func (e *TransitionEngine) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID string) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", target)
	}

	order, err := e.store.Get(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.VendorID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
	}
	if !CanTransition(order.Status, target) {
		return nil, pkgerrors.Newf(pkgerrors.CodeUnprocessableTransition, "cannot move order from %s to %s", order.Status, target).
			WithDetails(map[string]any{"from": order.Status, "to": target})
	}

	outcome, err := e.store.ConditionalUpdate(ctx, orderID,
		Predicate{Statuses: []enums.OrderStatus{order.Status}},
		Patch{Status: &target},
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	switch outcome {
	case UpdateNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	case UpdateConflict:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
	}

	order.Status = target
	ctx = e.logg.WithOrderID(ctx, orderID.String())
	e.logg.Info(e.logg.WithField(ctx, "status", target), "orders.status.updated")
	e.notifier.OrderStatusChanged(ctx, *order)
	return order, nil
}
