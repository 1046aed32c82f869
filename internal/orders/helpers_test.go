package orders

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	return logger.New(logger.Options{ServiceName: "orders-test", Output: buf})
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, buf *bytes.Buffer) (*store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := NewStore(setupOrdersTestDB(t), testLogger(buf)).(*store)
	s.now = clock.Now
	return s, clock
}

func sampleOrder(clientID, vendorID string) *models.Order {
	return &models.Order{
		ClientID: clientID,
		VendorID: vendorID,
		Items: types.OrderItems{
			{ProductID: "prod-1", Name: "Ayimolou sauce piment", Price: decimal.RequireFromString("1500"), Quantity: 2},
		},
		TotalPrice:      decimal.RequireFromString("3000"),
		DeliveryAddress: "Rue 12, Bè Kpota, Lomé",
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []enums.OrderStatus
	created  []uuid.UUID
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, order.Status)
}

func (n *recordingNotifier) OrderCreated(_ context.Context, order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, order.ID)
}

type stubStore struct {
	getFn    func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	updateFn func(ctx context.Context, id uuid.UUID, pred Predicate, patch Patch) (UpdateOutcome, error)
}

func (s *stubStore) Create(ctx context.Context, order *models.Order) (uuid.UUID, error) {
	panic("not implemented")
}

func (s *stubStore) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.getFn(ctx, id)
}

func (s *stubStore) Query(ctx context.Context, filters Filters, dir SortDirection) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubStore) ConditionalUpdate(ctx context.Context, id uuid.UUID, pred Predicate, patch Patch) (UpdateOutcome, error) {
	return s.updateFn(ctx, id, pred, patch)
}
