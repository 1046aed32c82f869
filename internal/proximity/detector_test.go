package proximity

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

var destination = geo.Point{Lat: 6.1725, Lng: 1.2314}

type nearbyRecorder struct {
	mu     sync.Mutex
	orders []uuid.UUID
}

func (r *nearbyRecorder) DriverNearby(_ context.Context, order models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order.ID)
}

func (r *nearbyRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fixture struct {
	db       *gorm.DB
	store    orders.Store
	notifier *nearbyRecorder
	detector *Detector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	logg := logger.New(logger.Options{ServiceName: "proximity-test", Output: io.Discard})
	store := orders.NewStore(db, logg)
	notifier := &nearbyRecorder{}
	detector, err := NewDetector(store, notifier, 500, logg)
	require.NoError(t, err)
	return &fixture{db: db, store: store, notifier: notifier, detector: detector}
}

func (f *fixture) seedDelivery(t *testing.T, driverID string, target *geo.Point) uuid.UUID {
	t.Helper()
	order := &models.Order{
		ClientID:        "client-1",
		VendorID:        "vendor-1",
		Items:           types.OrderItems{{ProductID: "p-1", Name: "Ayimolou", Price: decimal.RequireFromString("1000"), Quantity: 1}},
		TotalPrice:      decimal.RequireFromString("1000"),
		DeliveryAddress: "Tokoin, Lomé",
	}
	if target != nil {
		order.DeliveryLat = &target.Lat
		order.DeliveryLng = &target.Lng
	}
	id, err := f.store.Create(context.Background(), order)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"status":    enums.OrderStatusDelivering,
		"driver_id": driverID,
	}).Error)
	return id
}

func TestScanAlertsOnceWithinRadius(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedDelivery(t, "driver-1", &destination)

	sent, err := f.detector.Scan(ctx, "driver-1", geo.OffsetNorth(destination, 400))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = f.detector.Scan(ctx, "driver-1", geo.OffsetNorth(destination, 200))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, f.notifier.count())

	order, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, order.NearbyNotified)
}

func TestScanIgnoresFarAndUnlocatedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	far := f.seedDelivery(t, "driver-1", &destination)
	f.seedDelivery(t, "driver-1", nil)

	sent, err := f.detector.Scan(ctx, "driver-1", geo.OffsetNorth(destination, 600))
	require.NoError(t, err)
	assert.Zero(t, sent)

	order, err := f.store.Get(ctx, far)
	require.NoError(t, err)
	assert.False(t, order.NearbyNotified)
}

func TestScanOnlyConsidersTheDriversDeliveries(t *testing.T) {
	f := newFixture(t)
	f.seedDelivery(t, "driver-2", &destination)

	sent, err := f.detector.Scan(context.Background(), "driver-1", destination)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, f.notifier.count())
}

func TestConcurrentScansAlertOnce(t *testing.T) {
	f := newFixture(t)
	f.seedDelivery(t, "driver-1", &destination)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.detector.Scan(context.Background(), "driver-1", destination)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.notifier.count())
}

func TestNewDetectorRejectsNonPositiveRadius(t *testing.T) {
	f := newFixture(t)
	_, err := NewDetector(f.store, f.notifier, 0, logger.New(logger.Options{Output: io.Discard}))
	assert.Error(t, err)
}
