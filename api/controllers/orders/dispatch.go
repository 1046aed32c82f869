package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/api/responses"
	internalorders "github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// Dispatcher exposes the delivery board and the driver claim/complete flow.
type Dispatcher interface {
	ListAvailableDeliveries(ctx context.Context) ([]models.Order, error)
	Assign(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error)
}

// DriverGate checks that a driver may use the delivery board.
type DriverGate interface {
	RequireAvailableDriver(ctx context.Context, driverID string) error
}

// AvailableDeliveries lists READY unassigned orders for an available driver.
func AvailableDeliveries(dispatcher Dispatcher, gate DriverGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil || gate == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := gate.RequireAvailableDriver(r.Context(), actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := dispatcher.ListAvailableDeliveries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTOs(list))
	}
}

// Assign claims an order for the calling driver. Losing a concurrent claim
// yields 409.
func Assign(dispatcher Dispatcher, gate DriverGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil || gate == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := gate.RequireAvailableDriver(r.Context(), actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := dispatcher.Assign(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(*order))
	}
}

// Complete marks the caller's delivery as COMPLETED.
func Complete(dispatcher Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := dispatcher.Complete(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(*order))
	}
}
