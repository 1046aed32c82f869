package orders

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

const minAddressLength = 5

// OrderNotifier announces new orders to their vendor.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order models.Order)
}

// PaymentVerifier confirms a mobile-money payment for an order.
type PaymentVerifier interface {
	Verify(ctx context.Context, order models.Order, phoneNumber string) (bool, error)
}

// CreateOrderInput carries a client's checkout request.
type CreateOrderInput struct {
	ActorID         string
	ClientID        string
	VendorID        string
	Items           types.OrderItems
	TotalPrice      decimal.Decimal
	DeliveryAddress string
	Coordinates     *geo.Point
	PaymentMethod   enums.PaymentMethod
	PaymentStatus   enums.PaymentStatus
	Notes           *string
}

// Service covers order placement, listings and payment confirmation.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (uuid.UUID, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actorID string) (*models.Order, error)
	ListClientOrders(ctx context.Context, clientID string) ([]models.Order, error)
	ListVendorOrders(ctx context.Context, vendorID string) ([]models.Order, error)
	ListDriverOrders(ctx context.Context, driverID string) ([]models.Order, error)
	VerifyPayment(ctx context.Context, orderID uuid.UUID, actorID, phoneNumber string) (enums.PaymentStatus, error)
}

type service struct {
	store    Store
	notifier OrderNotifier
	payments PaymentVerifier
	logg     *logger.Logger
}

func NewService(store Store, notifier OrderNotifier, payments PaymentVerifier, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, notifier: notifier, payments: payments, logg: logg}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (uuid.UUID, error) {
	if input.ActorID == "" || input.ActorID != input.ClientID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "orders can only be placed for yourself")
	}
	if err := validateCreate(input); err != nil {
		return uuid.Nil, err
	}

	order := &models.Order{
		ClientID:        input.ClientID,
		VendorID:        input.VendorID,
		Items:           input.Items,
		TotalPrice:      input.TotalPrice,
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   input.PaymentStatus,
		Notes:           input.Notes,
	}
	if input.Coordinates != nil {
		lat, lng := input.Coordinates.Lat, input.Coordinates.Lng
		order.DeliveryLat = &lat
		order.DeliveryLng = &lng
	}

	id, err := s.store.Create(ctx, order)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	ctx = s.logg.WithOrderID(ctx, id.String())
	s.logg.Info(ctx, "orders.created")
	s.notifier.OrderCreated(ctx, *order)
	return id, nil
}

func validateCreate(input CreateOrderInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.VendorID) == "" {
		details["vendorId"] = "required"
	}
	if len(input.Items) == 0 {
		details["items"] = "at least one item required"
	}
	for i, item := range input.Items {
		if !item.Price.IsPositive() {
			details[fmt.Sprintf("items[%d].price", i)] = "must be positive"
		}
		if item.Quantity <= 0 {
			details[fmt.Sprintf("items[%d].quantity", i)] = "must be positive"
		}
	}
	if !input.TotalPrice.IsPositive() {
		details["totalPrice"] = "must be positive"
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.DeliveryAddress)) < minAddressLength {
		details["deliveryAddress.address"] = fmt.Sprintf("must be at least %d characters", minAddressLength)
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.IsValid() {
		details["paymentMethod"] = "invalid"
	}
	if input.PaymentStatus != "" && !input.PaymentStatus.IsValid() {
		details["paymentStatus"] = "invalid"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(details)
	}
	return nil
}

// GetOrder returns the order when the actor is its client, vendor or driver.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actorID string) (*models.Order, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.ClientID != actorID && order.VendorID != actorID && !order.IsAssignedTo(actorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to caller")
	}
	return order, nil
}

func (s *service) ListClientOrders(ctx context.Context, clientID string) ([]models.Order, error) {
	return s.list(ctx, Filters{ClientID: clientID})
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID string) ([]models.Order, error) {
	return s.list(ctx, Filters{VendorID: vendorID})
}

func (s *service) ListDriverOrders(ctx context.Context, driverID string) ([]models.Order, error) {
	return s.list(ctx, Filters{DriverID: driverID})
}

func (s *service) list(ctx context.Context, filters Filters) ([]models.Order, error) {
	list, err := s.store.Query(ctx, filters, NewestFirst)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

// VerifyPayment asks the verifier to confirm the client's payment and marks
// the order PAID on success. The returned status is the order's resulting
// payment status.
func (s *service) VerifyPayment(ctx context.Context, orderID uuid.UUID, actorID, phoneNumber string) (enums.PaymentStatus, error) {
	if strings.TrimSpace(phoneNumber) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.ClientID != actorID {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another client")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return enums.PaymentStatusPaid, nil
	}

	ok, err := s.payments.Verify(ctx, *order, phoneNumber)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify payment")
	}
	if !ok {
		return order.PaymentStatus, nil
	}

	paid := enums.PaymentStatusPaid
	outcome, err := s.store.ConditionalUpdate(ctx, orderID, Predicate{}, Patch{PaymentStatus: &paid})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
	}
	if outcome == UpdateNotFound {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "orders.payment.verified")
	return paid, nil
}
