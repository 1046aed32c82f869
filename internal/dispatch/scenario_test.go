package dispatch

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

func TestOrderLifecycleWithTwoDrivers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	engine, err := orders.NewTransitionEngine(f.store, f.notifier, testLogger())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	id, err := f.store.Create(ctx, &models.Order{
		ClientID: "client-ama",
		VendorID: "vendor-kossi",
		Items: types.OrderItems{
			{ProductID: "p1", Name: "Ayimolou + poisson", Price: decimal.RequireFromString("2000"), Quantity: 1},
		},
		TotalPrice:      decimal.RequireFromString("2000"),
		DeliveryAddress: "Quartier Tokoin, Lomé",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, next := range []enums.OrderStatus{enums.OrderStatusAccepted, enums.OrderStatusPreparing, enums.OrderStatusReady} {
		if _, err := engine.UpdateStatus(ctx, id, next, "vendor-kossi"); err != nil {
			t.Fatalf("vendor transition to %s: %v", next, err)
		}
	}

	available, err := f.coordinator.ListAvailableDeliveries(ctx)
	if err != nil || len(available) != 1 || available[0].ID != id {
		t.Fatalf("expected order to be available, got %d err=%v", len(available), err)
	}

	if _, err := f.coordinator.Assign(ctx, id, "driver-d1"); err != nil {
		t.Fatalf("d1 assign: %v", err)
	}
	if _, err := f.coordinator.Assign(ctx, id, "driver-d2"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("d2 should lose the race, got %v", err)
	}

	available, _ = f.coordinator.ListAvailableDeliveries(ctx)
	if len(available) != 0 {
		t.Fatalf("assigned order must leave the available list")
	}

	if _, err := f.coordinator.Complete(ctx, id, "driver-d2"); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("d2 completion should be forbidden, got %v", err)
	}
	if _, err := f.coordinator.Complete(ctx, id, "driver-d1"); err != nil {
		t.Fatalf("d1 complete: %v", err)
	}

	stored, _ := f.store.Get(ctx, id)
	if stored.Status != enums.OrderStatusCompleted || !stored.IsAssignedTo("driver-d1") {
		t.Fatalf("unexpected final order status=%s driver=%v", stored.Status, stored.DriverID)
	}

	want := []enums.OrderStatus{
		enums.OrderStatusAccepted,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusDelivering,
		enums.OrderStatusCompleted,
	}
	events := f.notifier.snapshot()
	if len(events) != len(want) {
		t.Fatalf("expected %d client notifications, got %+v", len(want), events)
	}
	for i, status := range want {
		if events[i].Status != status || events[i].ClientID != "client-ama" {
			t.Fatalf("notification %d: got %+v want %s", i, events[i], status)
		}
	}
}
