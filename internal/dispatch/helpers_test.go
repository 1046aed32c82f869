package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

func setupDispatchTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "dispatch-test", Output: io.Discard})
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

type notified struct {
	OrderID  uuid.UUID
	ClientID string
	Status   enums.OrderStatus
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{OrderID: order.ID, ClientID: order.ClientID, Status: order.Status})
}

func (n *recordingNotifier) snapshot() []notified {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notified, len(n.events))
	copy(out, n.events)
	return out
}

type countingRecorder struct {
	mu       sync.Mutex
	assign   map[string]int
	complete map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{assign: map[string]int{}, complete: map[string]int{}}
}

func (r *countingRecorder) ObserveAssign(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assign[outcome]++
}

func (r *countingRecorder) ObserveComplete(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete[outcome]++
}

type fixture struct {
	db          *gorm.DB
	store       orders.Store
	notifier    *recordingNotifier
	metrics     *countingRecorder
	coordinator *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupDispatchTestDB(t)
	store := orders.NewStore(db, testLogger())
	notifier := &recordingNotifier{}
	metrics := newCountingRecorder()
	coordinator, err := NewCoordinator(store, notifier, metrics, testLogger())
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	return &fixture{db: db, store: store, notifier: notifier, metrics: metrics, coordinator: coordinator}
}

// seedOrder creates an order and forces it into status.
func (f *fixture) seedOrder(t *testing.T, status enums.OrderStatus, driverID *string) uuid.UUID {
	t.Helper()
	order := &models.Order{
		ClientID: "client-1",
		VendorID: "vendor-1",
		Items: types.OrderItems{
			{ProductID: "p1", Name: "Ayimolou", Price: decimal.RequireFromString("1000"), Quantity: 1},
		},
		TotalPrice:      decimal.RequireFromString("1000"),
		DeliveryAddress: "Avenue de la Libération, Lomé",
	}
	id, err := f.store.Create(context.Background(), order)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	updates := map[string]any{"status": status}
	if driverID != nil {
		updates["driver_id"] = *driverID
	}
	if err := f.db.Model(&models.Order{}).Where("id = ?", id).UpdateColumns(updates).Error; err != nil {
		t.Fatalf("seed status: %v", err)
	}
	return id
}

func strPtr(s string) *string { return &s }
