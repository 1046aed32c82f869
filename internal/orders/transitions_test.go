package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
)

func TestCanTransitionClosure(t *testing.T) {
	allowed := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPending, enums.OrderStatusAccepted}:   true,
		{enums.OrderStatusPending, enums.OrderStatusCancelled}:  true,
		{enums.OrderStatusAccepted, enums.OrderStatusPreparing}: true,
		{enums.OrderStatusPreparing, enums.OrderStatusReady}:    true,
	}

	pairs := 0
	for _, from := range enums.OrderStatuses() {
		for _, to := range enums.OrderStatuses() {
			pairs++
			want := allowed[[2]enums.OrderStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if pairs != 49 {
		t.Fatalf("expected 49 status pairs, got %d", pairs)
	}
}

func TestUpdateStatusClosureAgainstStore(t *testing.T) {
	for _, from := range enums.OrderStatuses() {
		for _, to := range enums.OrderStatuses() {
			from, to := from, to
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				ctx := context.Background()
				s, _ := newTestStore(t, nil)
				id, err := s.Create(ctx, sampleOrder("client-1", "vendor-1"))
				if err != nil {
					t.Fatalf("create: %v", err)
				}
				current := from
				if _, err := s.ConditionalUpdate(ctx, id, Predicate{}, Patch{Status: &current}); err != nil {
					t.Fatalf("seed status: %v", err)
				}

				notifier := &recordingNotifier{}
				engine, err := NewTransitionEngine(s, notifier, testLogger(nil))
				if err != nil {
					t.Fatalf("engine: %v", err)
				}

				_, err = engine.UpdateStatus(ctx, id, to, "vendor-1")
				stored, _ := s.Get(ctx, id)
				if CanTransition(from, to) {
					if err != nil {
						t.Fatalf("unexpected error %v", err)
					}
					if stored.Status != to {
						t.Fatalf("stored status %s", stored.Status)
					}
					if len(notifier.statuses) != 1 || notifier.statuses[0] != to {
						t.Fatalf("expected one notification, got %v", notifier.statuses)
					}
					return
				}
				if !pkgerrors.IsCode(err, pkgerrors.CodeUnprocessableTransition) {
					t.Fatalf("expected unprocessable transition, got %v", err)
				}
				if stored.Status != from {
					t.Fatalf("status changed to %s", stored.Status)
				}
				if len(notifier.statuses) != 0 {
					t.Fatal("unexpected notification")
				}
			})
		}
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	engine, err := NewTransitionEngine(&stubStore{
		getFn: func(context.Context, uuid.UUID) (*models.Order, error) { return nil, nil },
	}, &recordingNotifier{}, testLogger(nil))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	_, err = engine.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusAccepted, "vendor-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatusForbiddenBeforeTransitionCheck(t *testing.T) {
	order := &models.Order{ID: uuid.New(), VendorID: "vendor-1", Status: enums.OrderStatusCompleted}
	engine, _ := NewTransitionEngine(&stubStore{
		getFn: func(context.Context, uuid.UUID) (*models.Order, error) { return order, nil },
		updateFn: func(context.Context, uuid.UUID, Predicate, Patch) (UpdateOutcome, error) {
			t.Fatal("update must not run")
			return UpdateApplied, nil
		},
	}, &recordingNotifier{}, testLogger(nil))

	_, err := engine.UpdateStatus(context.Background(), order.ID, enums.OrderStatusAccepted, "vendor-2")
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateStatusConcurrentChangeConflicts(t *testing.T) {
	order := &models.Order{ID: uuid.New(), VendorID: "vendor-1", Status: enums.OrderStatusPending}
	var gotPred Predicate
	notifier := &recordingNotifier{}
	engine, _ := NewTransitionEngine(&stubStore{
		getFn: func(context.Context, uuid.UUID) (*models.Order, error) { return order, nil },
		updateFn: func(_ context.Context, _ uuid.UUID, pred Predicate, _ Patch) (UpdateOutcome, error) {
			gotPred = pred
			return UpdateConflict, nil
		},
	}, notifier, testLogger(nil))

	_, err := engine.UpdateStatus(context.Background(), order.ID, enums.OrderStatusAccepted, "vendor-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(gotPred.Statuses) != 1 || gotPred.Statuses[0] != enums.OrderStatusPending {
		t.Fatalf("expected update guarded by observed status, got %+v", gotPred)
	}
	if len(notifier.statuses) != 0 {
		t.Fatal("no notification expected on conflict")
	}
}

func TestUpdateStatusStoreErrorIsInternal(t *testing.T) {
	engine, _ := NewTransitionEngine(&stubStore{
		getFn: func(context.Context, uuid.UUID) (*models.Order, error) { return nil, errors.New("db down") },
	}, &recordingNotifier{}, testLogger(nil))

	_, err := engine.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusAccepted, "vendor-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownTarget(t *testing.T) {
	engine, _ := NewTransitionEngine(&stubStore{}, &recordingNotifier{}, testLogger(nil))
	_, err := engine.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatus("SHIPPED"), "vendor-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
