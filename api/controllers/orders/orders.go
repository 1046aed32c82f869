package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayimolou/ayimolou-backend/api/responses"
	"github.com/ayimolou/ayimolou-backend/api/validators"
	"github.com/ayimolou/ayimolou-backend/internal/geo"
	internalorders "github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

const (
	maxNotesLength   = 500
	maxAddressLength = 300
)

// StatusUpdater applies vendor-driven status transitions.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID string) (*models.Order, error)
}

type deliveryAddressRequest struct {
	Address     string             `json:"address" validate:"required,min=5,max=300"`
	Coordinates *types.Coordinates `json:"coordinates" validate:"omitempty"`
}

type createOrderRequest struct {
	ClientID        string                 `json:"clientId" validate:"required"`
	VendorID        string                 `json:"vendorId" validate:"required"`
	Items           types.OrderItems       `json:"items" validate:"required,min=1,dive"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
	DeliveryAddress deliveryAddressRequest `json:"deliveryAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"omitempty,oneof=CASH MOBILE_MONEY"`
	PaymentStatus   string                 `json:"paymentStatus" validate:"omitempty,oneof=UNPAID PAID REFUNDED"`
	Notes           *string                `json:"notes" validate:"omitempty,max=500"`
}

func (req createOrderRequest) toInput(actor string) internalorders.CreateOrderInput {
	input := internalorders.CreateOrderInput{
		ActorID:         actor,
		ClientID:        strings.TrimSpace(req.ClientID),
		VendorID:        strings.TrimSpace(req.VendorID),
		Items:           req.Items,
		TotalPrice:      req.TotalPrice,
		DeliveryAddress: validators.CleanText(req.DeliveryAddress.Address, maxAddressLength),
		PaymentMethod:   enums.PaymentMethod(req.PaymentMethod),
		PaymentStatus:   enums.PaymentStatus(req.PaymentStatus),
	}
	if c := req.DeliveryAddress.Coordinates; c != nil {
		input.Coordinates = &geo.Point{Lat: *c.Latitude, Lng: *c.Longitude}
	}
	if req.Notes != nil {
		notes := validators.CleanText(*req.Notes, maxNotesLength)
		input.Notes = &notes
	}
	return input
}

// Create places a new order on behalf of the calling client.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := svc.CreateOrder(r.Context(), req.toInput(actor))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": id.String()})
	}
}

// MyOrders lists the caller's orders as a client. A clientId query naming
// someone else is rejected.
func MyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if clientID := strings.TrimSpace(r.URL.Query().Get("clientId")); clientID != "" && clientID != actor {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "you can only view your own orders"))
			return
		}

		list, err := svc.ListClientOrders(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTOs(list))
	}
}

func VendorOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listFor(svc, logg, func(ctx context.Context, actor string) ([]models.Order, error) {
		return svc.ListVendorOrders(ctx, actor)
	})
}

func DriverOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listFor(svc, logg, func(ctx context.Context, actor string) ([]models.Order, error) {
		return svc.ListDriverOrders(ctx, actor)
	})
}

func listFor(svc internalorders.Service, logg *logger.Logger, list func(ctx context.Context, actor string) ([]models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := list(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTOs(rows))
	}
}

// Detail returns an order visible to the caller.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

		order, err := svc.GetOrder(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(*order))
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus moves an order through the vendor transition matrix.
func UpdateStatus(engine StatusUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transition engine unavailable"))
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

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"allowed": enums.OrderStatuses()}))
			return
		}

		order, err := engine.UpdateStatus(r.Context(), orderID, target, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(*order))
	}
}

type verifyPaymentRequest struct {
	OrderID     string `json:"orderId" validate:"required,uuid"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
}

type paymentStatusResponse struct {
	Status enums.PaymentStatus `json:"status"`
}

// VerifyPayment confirms a mobile-money payment for the caller's order.
// A failed verification answers 400 with the unchanged status.
func VerifyPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		status, err := svc.VerifyPayment(r.Context(), orderID, actor, strings.TrimSpace(req.PhoneNumber))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if status != enums.PaymentStatusPaid {
			responses.WriteSuccessStatus(w, http.StatusBadRequest, paymentStatusResponse{Status: status})
			return
		}
		responses.WriteSuccess(w, paymentStatusResponse{Status: status})
	}
}
