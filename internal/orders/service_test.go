package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

type stubVerifier struct {
	ok    bool
	err   error
	calls int
}

func (v *stubVerifier) Verify(context.Context, models.Order, string) (bool, error) {
	v.calls++
	return v.ok, v.err
}

func newTestService(t *testing.T, verifier PaymentVerifier) (Service, Store, *recordingNotifier) {
	t.Helper()
	s, _ := newTestStore(t, nil)
	notifier := &recordingNotifier{}
	if verifier == nil {
		verifier = &stubVerifier{ok: true}
	}
	svc, err := NewService(s, notifier, verifier, testLogger(nil))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, s, notifier
}

func validCreateInput() CreateOrderInput {
	return CreateOrderInput{
		ActorID:  "client-1",
		ClientID: "client-1",
		VendorID: "vendor-1",
		Items: types.OrderItems{
			{ProductID: "p1", Name: "Ayimolou complet", Price: decimal.RequireFromString("1200"), Quantity: 1},
		},
		TotalPrice:      decimal.RequireFromString("1200"),
		DeliveryAddress: "Carrefour Deckon, Lomé",
		Coordinates:     &geo.Point{Lat: 6.1319, Lng: 1.2228},
		PaymentMethod:   enums.PaymentMethodMobileMoney,
	}
}

func TestCreateOrderRequiresActorToBeClient(t *testing.T) {
	svc, _, notifier := newTestService(t, nil)
	input := validCreateInput()
	input.ActorID = "someone-else"

	if _, err := svc.CreateOrder(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(notifier.created) != 0 {
		t.Fatal("no notification expected")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	cases := map[string]func(*CreateOrderInput){
		"no items":       func(in *CreateOrderInput) { in.Items = nil },
		"zero price":     func(in *CreateOrderInput) { in.Items[0].Price = decimal.Zero },
		"zero quantity":  func(in *CreateOrderInput) { in.Items[0].Quantity = 0 },
		"zero total":     func(in *CreateOrderInput) { in.TotalPrice = decimal.Zero },
		"short address":  func(in *CreateOrderInput) { in.DeliveryAddress = "Lomé" },
		"bad method":     func(in *CreateOrderInput) { in.PaymentMethod = "CARD" },
		"missing vendor": func(in *CreateOrderInput) { in.VendorID = " " },
	}
	for name, mutate := range cases {
		input := validCreateInput()
		mutate(&input)
		if _, err := svc.CreateOrder(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestCreateOrderCountsAddressCharacters(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	input := validCreateInput()
	input.DeliveryAddress = "Kpémé"
	if _, err := svc.CreateOrder(context.Background(), input); err != nil {
		t.Fatalf("five-character address should pass, got %v", err)
	}

	input = validCreateInput()
	input.DeliveryAddress = "  Lomé  "
	if _, err := svc.CreateOrder(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("four-character address should fail, got %v", err)
	}
}

func TestCreateOrderPersistsAndNotifiesVendor(t *testing.T) {
	svc, s, notifier := newTestService(t, nil)
	ctx := context.Background()

	id, err := svc.CreateOrder(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored, err := s.Get(ctx, id)
	if err != nil || stored == nil {
		t.Fatalf("expected stored order, err=%v", err)
	}
	if stored.Status != enums.OrderStatusPending || stored.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("unexpected lifecycle defaults %s/%s", stored.Status, stored.PaymentStatus)
	}
	if stored.PaymentMethod != enums.PaymentMethodMobileMoney {
		t.Fatalf("expected mobile money, got %s", stored.PaymentMethod)
	}
	if !stored.HasDeliveryCoordinates() || *stored.DeliveryLat != 6.1319 {
		t.Fatalf("expected delivery coordinates to be stored")
	}
	if len(notifier.created) != 1 || notifier.created[0] != id {
		t.Fatalf("expected vendor notification for %s, got %v", id, notifier.created)
	}
}

func TestGetOrderVisibility(t *testing.T) {
	svc, s, _ := newTestService(t, nil)
	ctx := context.Background()

	id, err := s.Create(ctx, sampleOrder("client-1", "vendor-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, actor := range []string{"client-1", "vendor-1"} {
		if _, err := svc.GetOrder(ctx, id, actor); err != nil {
			t.Fatalf("%s should see the order: %v", actor, err)
		}
	}
	if _, err := svc.GetOrder(ctx, id, "stranger"); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, uuid.New(), "client-1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOrdersByParty(t *testing.T) {
	svc, s, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, pair := range [][2]string{{"client-1", "vendor-1"}, {"client-1", "vendor-2"}, {"client-2", "vendor-1"}} {
		if _, err := s.Create(ctx, sampleOrder(pair[0], pair[1])); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	clientOrders, err := svc.ListClientOrders(ctx, "client-1")
	if err != nil || len(clientOrders) != 2 {
		t.Fatalf("expected 2 client orders, got %d err=%v", len(clientOrders), err)
	}
	vendorOrders, err := svc.ListVendorOrders(ctx, "vendor-1")
	if err != nil || len(vendorOrders) != 2 {
		t.Fatalf("expected 2 vendor orders, got %d err=%v", len(vendorOrders), err)
	}
	driverOrders, err := svc.ListDriverOrders(ctx, "driver-1")
	if err != nil || len(driverOrders) != 0 {
		t.Fatalf("expected no driver orders, got %d err=%v", len(driverOrders), err)
	}
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("marks paid", func(t *testing.T) {
		verifier := &stubVerifier{ok: true}
		svc, s, _ := newTestService(t, verifier)
		id, _ := s.Create(ctx, sampleOrder("client-1", "vendor-1"))

		status, err := svc.VerifyPayment(ctx, id, "client-1", "+22890000000")
		if err != nil || status != enums.PaymentStatusPaid {
			t.Fatalf("expected PAID, got %s err=%v", status, err)
		}
		stored, _ := s.Get(ctx, id)
		if stored.PaymentStatus != enums.PaymentStatusPaid {
			t.Fatalf("stored payment status %s", stored.PaymentStatus)
		}
		if stored.Status != enums.OrderStatusPending {
			t.Fatalf("payment must not touch lifecycle status, got %s", stored.Status)
		}

		if _, err := svc.VerifyPayment(ctx, id, "client-1", "+22890000000"); err != nil {
			t.Fatalf("second verification: %v", err)
		}
		if verifier.calls != 1 {
			t.Fatalf("already paid orders should not be re-verified, calls=%d", verifier.calls)
		}
	})

	t.Run("declined stays unpaid", func(t *testing.T) {
		svc, s, _ := newTestService(t, &stubVerifier{ok: false})
		id, _ := s.Create(ctx, sampleOrder("client-1", "vendor-1"))

		status, err := svc.VerifyPayment(ctx, id, "client-1", "+22890000000")
		if err != nil || status != enums.PaymentStatusUnpaid {
			t.Fatalf("expected UNPAID, got %s err=%v", status, err)
		}
	})

	t.Run("ownership and existence", func(t *testing.T) {
		svc, s, _ := newTestService(t, nil)
		id, _ := s.Create(ctx, sampleOrder("client-1", "vendor-1"))

		if _, err := svc.VerifyPayment(ctx, id, "client-2", "+22890000000"); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
		if _, err := svc.VerifyPayment(ctx, uuid.New(), "client-1", "+22890000000"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if _, err := svc.VerifyPayment(ctx, id, "client-1", ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("verifier failure", func(t *testing.T) {
		svc, s, _ := newTestService(t, &stubVerifier{err: errors.New("gateway timeout")})
		id, _ := s.Create(ctx, sampleOrder("client-1", "vendor-1"))

		if _, err := svc.VerifyPayment(ctx, id, "client-1", "+22890000000"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			t.Fatalf("expected dependency error, got %v", err)
		}
	})
}
