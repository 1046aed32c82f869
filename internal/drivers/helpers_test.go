package drivers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

var (
	lome     = geo.Point{Lat: 6.1319, Lng: 1.2228}
	baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
)

func setupDriversTestDB(t *testing.T) *gorm.DB {
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

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "drivers-test", Output: io.Discard})
}

type recordingScanner struct {
	mu        sync.Mutex
	positions []geo.Point
	err       error
}

func (s *recordingScanner) Scan(_ context.Context, _ string, position geo.Point) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append(s.positions, position)
	return 0, s.err
}

func (s *recordingScanner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}

type fixture struct {
	db       *gorm.DB
	repo     *Repository
	store    orders.Store
	scanner  *recordingScanner
	throttle *Throttle
	service  *Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupDriversTestDB(t)
	logg := testLogger()
	f := &fixture{db: db, repo: NewRepository(db), store: orders.NewStore(db, logg), scanner: &recordingScanner{}, now: baseTime}

	throttle, err := NewThrottle(f.repo, f.scanner, config.DispatchConfig{
		LocationMinInterval:       5 * time.Second,
		LocationMinDistanceMeters: 10,
		ProximityRadiusMeters:     500,
	}, logg)
	require.NoError(t, err)
	throttle.now = func() time.Time { return f.now }
	f.throttle = throttle

	svc, err := NewService(f.repo, f.store, throttle, logg)
	require.NoError(t, err)
	svc.now = func() time.Time { return f.now }
	f.service = svc
	return f
}

func (f *fixture) seedUser(t *testing.T, id string, role enums.UserRole, last *geo.Point, lastAt *time.Time) {
	t.Helper()
	user := &models.User{ID: id, Role: role, Status: enums.UserStatusActive, CreatedAt: baseTime, UpdatedAt: baseTime}
	if last != nil {
		user.Driver.CurrentLat = &last.Lat
		user.Driver.CurrentLng = &last.Lng
	}
	user.Driver.LastLocationUpdate = lastAt
	require.NoError(t, f.db.Create(user).Error)
}

func (f *fixture) seedDelivery(t *testing.T, driverID string) {
	t.Helper()
	id, err := f.store.Create(context.Background(), &models.Order{
		ClientID:        "client-1",
		VendorID:        "vendor-1",
		Items:           types.OrderItems{{ProductID: "p-1", Name: "Ayimolou", Price: decimal.RequireFromString("1000"), Quantity: 1}},
		TotalPrice:      decimal.RequireFromString("1000"),
		DeliveryAddress: "Adidogomé, Lomé",
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"status":    enums.OrderStatusDelivering,
		"driver_id": driverID,
	}).Error)
}

func ptrTime(v time.Time) *time.Time { return &v }

func ptrFloat(v float64) *float64 { return &v }

func ptrBool(v bool) *bool { return &v }
