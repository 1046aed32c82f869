package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
)

func TestListAvailableDeliveries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newer := f.seedOrder(t, enums.OrderStatusReady, nil)
	older := f.seedOrder(t, enums.OrderStatusReady, nil)
	f.seedOrder(t, enums.OrderStatusPreparing, nil)
	f.seedOrder(t, enums.OrderStatusDelivering, strPtr("driver-x"))

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	f.db.Model(&models.Order{}).Where("id = ?", older).UpdateColumn("created_at", base)
	f.db.Model(&models.Order{}).Where("id = ?", newer).UpdateColumn("created_at", base.Add(time.Hour))

	list, err := f.coordinator.ListAvailableDeliveries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 available deliveries, got %d", len(list))
	}
	if list[0].ID != older || list[1].ID != newer {
		t.Fatalf("expected oldest first, got %s then %s", list[0].ID, list[1].ID)
	}
}

func TestAssignSucceedsOnReadyOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedOrder(t, enums.OrderStatusReady, nil)

	order, err := f.coordinator.Assign(ctx, id, "driver-1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if order.Status != enums.OrderStatusDelivering || !order.IsAssignedTo("driver-1") {
		t.Fatalf("unexpected order after assign: status=%s driver=%v", order.Status, order.DriverID)
	}

	events := f.notifier.snapshot()
	if len(events) != 1 || events[0].Status != enums.OrderStatusDelivering || events[0].ClientID != "client-1" {
		t.Fatalf("expected one DELIVERING notification to the client, got %+v", events)
	}
}

func TestAssignRejectsUnavailableOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPreparing, enums.OrderStatusCompleted, enums.OrderStatusCancelled} {
		id := f.seedOrder(t, status, nil)
		if _, err := f.coordinator.Assign(ctx, id, "driver-1"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			t.Fatalf("%s: expected conflict, got %v", status, err)
		}
	}

	taken := f.seedOrder(t, enums.OrderStatusReady, strPtr("driver-0"))
	if _, err := f.coordinator.Assign(ctx, taken, "driver-1"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for already assigned order, got %v", err)
	}

	if _, err := f.coordinator.Assign(ctx, uuid.New(), "driver-1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.notifier.snapshot()) != 0 {
		t.Fatal("failed assignments must not notify")
	}
}

func TestAssignConcurrentCallersSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedOrder(t, enums.OrderStatusReady, nil)

	const drivers = 10
	errs := make([]error, drivers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.coordinator.Assign(ctx, id, uuid.NewString())
		}(i)
	}
	close(start)
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if winners != 1 || conflicts != drivers-1 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d/%d", drivers-1, winners, conflicts)
	}

	stored, _ := f.store.Get(ctx, id)
	if stored.DriverID == nil || stored.Status != enums.OrderStatusDelivering {
		t.Fatalf("expected stored assignment, got %+v", stored)
	}
	if got := len(f.notifier.snapshot()); got != 1 {
		t.Fatalf("expected exactly one notification, got %d", got)
	}
	if f.metrics.assign["assigned"] != 1 || f.metrics.assign["conflict"] != drivers-1 {
		t.Fatalf("unexpected metrics %+v", f.metrics.assign)
	}
}

func TestCompleteOwnershipAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	delivering := f.seedOrder(t, enums.OrderStatusDelivering, strPtr("driver-1"))
	if _, err := f.coordinator.Complete(ctx, delivering, "driver-2"); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for other driver, got %v", err)
	}
	stored, _ := f.store.Get(ctx, delivering)
	if stored.Status != enums.OrderStatusDelivering {
		t.Fatalf("forbidden completion changed status to %s", stored.Status)
	}

	if _, err := f.coordinator.Complete(ctx, uuid.New(), "driver-1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	order, err := f.coordinator.Complete(ctx, delivering, "driver-1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", order.Status)
	}

	if _, err := f.coordinator.Complete(ctx, delivering, "driver-1"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict when completing twice, got %v", err)
	}

	events := f.notifier.snapshot()
	if len(events) != 1 || events[0].Status != enums.OrderStatusCompleted {
		t.Fatalf("expected one COMPLETED notification, got %+v", events)
	}
}

func TestCompleteUnassignedOrderIsForbidden(t *testing.T) {
	f := newFixture(t)
	id := f.seedOrder(t, enums.OrderStatusReady, nil)

	if _, err := f.coordinator.Complete(context.Background(), id, "driver-1"); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

// unreadableStore fails every Get while writes go through.
type unreadableStore struct {
	orders.Store
}

func (unreadableStore) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, errors.New("connection reset")
}

func TestAssignSurvivesReloadFailure(t *testing.T) {
	f := newFixture(t)
	id := f.seedOrder(t, enums.OrderStatusReady, nil)
	coordinator, err := NewCoordinator(unreadableStore{f.store}, f.notifier, f.metrics, testLogger())
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}

	order, err := coordinator.Assign(context.Background(), id, "driver-a")
	if err != nil {
		t.Fatalf("committed claim should succeed, got %v", err)
	}
	if order.Status != enums.OrderStatusDelivering || !order.IsAssignedTo("driver-a") {
		t.Fatalf("unexpected order %+v", order)
	}
	stored, err := f.store.Get(context.Background(), id)
	if err != nil || stored == nil || !stored.IsAssignedTo("driver-a") {
		t.Fatalf("claim should be persisted: %+v %v", stored, err)
	}
}

func TestCompleteCountsStoreFailures(t *testing.T) {
	f := newFixture(t)
	id := f.seedOrder(t, enums.OrderStatusDelivering, strPtr("driver-a"))
	coordinator, err := NewCoordinator(unreadableStore{f.store}, f.notifier, f.metrics, testLogger())
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}

	_, err = coordinator.Complete(context.Background(), id, "driver-a")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	f.metrics.mu.Lock()
	defer f.metrics.mu.Unlock()
	if f.metrics.complete["error"] != 1 {
		t.Fatalf("expected one error outcome, got %v", f.metrics.complete)
	}
}
