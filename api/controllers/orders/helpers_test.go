package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/api/middleware"
	internalorders "github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

type stubOrdersService struct {
	createFn     func(ctx context.Context, input internalorders.CreateOrderInput) (uuid.UUID, error)
	getFn        func(ctx context.Context, orderID uuid.UUID, actorID string) (*models.Order, error)
	listClientFn func(ctx context.Context, clientID string) ([]models.Order, error)
	listVendorFn func(ctx context.Context, vendorID string) ([]models.Order, error)
	listDriverFn func(ctx context.Context, driverID string) ([]models.Order, error)
	verifyPayFn  func(ctx context.Context, orderID uuid.UUID, actorID, phone string) (enums.PaymentStatus, error)
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (uuid.UUID, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return uuid.New(), nil
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID uuid.UUID, actorID string) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID, actorID)
	}
	return &models.Order{ID: orderID}, nil
}

func (s *stubOrdersService) ListClientOrders(ctx context.Context, clientID string) ([]models.Order, error) {
	if s.listClientFn != nil {
		return s.listClientFn(ctx, clientID)
	}
	return nil, nil
}

func (s *stubOrdersService) ListVendorOrders(ctx context.Context, vendorID string) ([]models.Order, error) {
	if s.listVendorFn != nil {
		return s.listVendorFn(ctx, vendorID)
	}
	return nil, nil
}

func (s *stubOrdersService) ListDriverOrders(ctx context.Context, driverID string) ([]models.Order, error) {
	if s.listDriverFn != nil {
		return s.listDriverFn(ctx, driverID)
	}
	return nil, nil
}

func (s *stubOrdersService) VerifyPayment(ctx context.Context, orderID uuid.UUID, actorID, phone string) (enums.PaymentStatus, error) {
	if s.verifyPayFn != nil {
		return s.verifyPayFn(ctx, orderID, actorID, phone)
	}
	return enums.PaymentStatusPaid, nil
}

type stubDispatcher struct {
	listFn     func(ctx context.Context) ([]models.Order, error)
	assignFn   func(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error)
	completeFn func(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error)
}

func (s *stubDispatcher) ListAvailableDeliveries(ctx context.Context) ([]models.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubDispatcher) Assign(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error) {
	if s.assignFn != nil {
		return s.assignFn(ctx, orderID, driverID)
	}
	return &models.Order{ID: orderID, DriverID: &driverID, Status: enums.OrderStatusDelivering}, nil
}

func (s *stubDispatcher) Complete(ctx context.Context, orderID uuid.UUID, driverID string) (*models.Order, error) {
	if s.completeFn != nil {
		return s.completeFn(ctx, orderID, driverID)
	}
	return &models.Order{ID: orderID, DriverID: &driverID, Status: enums.OrderStatusCompleted}, nil
}

type stubGate struct {
	err   error
	calls int
}

func (g *stubGate) RequireAvailableDriver(ctx context.Context, driverID string) error {
	g.calls++
	return g.err
}

type stubStatusUpdater struct {
	updateFn func(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID string) (*models.Order, error)
}

func (s *stubStatusUpdater) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID string) (*models.Order, error) {
	return s.updateFn(ctx, orderID, target, actorID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newRequest(method, target, body, actor string, role enums.UserRole, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if actor != "" {
		ctx = middleware.WithIdentity(ctx, actor, role)
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}
