package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// SortDirection orders query results by creation time.
type SortDirection int

const (
	NewestFirst SortDirection = iota
	OldestFirst
)

func (d SortDirection) clause() string {
	if d == OldestFirst {
		return "created_at ASC"
	}
	return "created_at DESC"
}

// Filters narrows Query results. Zero-valued fields are ignored; set fields
// are ANDed together.
type Filters struct {
	ClientID   string
	VendorID   string
	DriverID   string
	Statuses   []enums.OrderStatus
	Unassigned bool
}

func (f Filters) apply(q *gorm.DB) *gorm.DB {
	if f.ClientID != "" {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.VendorID != "" {
		q = q.Where("vendor_id = ?", f.VendorID)
	}
	if f.DriverID != "" {
		q = q.Where("driver_id = ?", f.DriverID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Unassigned {
		q = q.Where("driver_id IS NULL")
	}
	return q
}

// Predicate guards a conditional update. Every set field must hold on the
// stored row for the patch to apply.
type Predicate struct {
	Statuses       []enums.OrderStatus
	DriverUnset    bool
	DriverID       *string
	NearbyNotified *bool
}

func (p Predicate) apply(q *gorm.DB) *gorm.DB {
	if len(p.Statuses) > 0 {
		q = q.Where("status IN ?", p.Statuses)
	}
	if p.DriverUnset {
		q = q.Where("driver_id IS NULL")
	}
	if p.DriverID != nil {
		q = q.Where("driver_id = ?", *p.DriverID)
	}
	if p.NearbyNotified != nil {
		q = q.Where("nearby_notified = ?", *p.NearbyNotified)
	}
	return q
}

// Patch lists the columns a conditional update writes. updated_at is always
// bumped.
type Patch struct {
	Status         *enums.OrderStatus
	DriverID       *string
	NearbyNotified *bool
	PaymentStatus  *enums.PaymentStatus
}

func (p Patch) columns(now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.DriverID != nil {
		cols["driver_id"] = *p.DriverID
	}
	if p.NearbyNotified != nil {
		cols["nearby_notified"] = *p.NearbyNotified
	}
	if p.PaymentStatus != nil {
		cols["payment_status"] = *p.PaymentStatus
	}
	return cols
}

// UpdateOutcome reports how a conditional update resolved.
type UpdateOutcome int

const (
	UpdateApplied UpdateOutcome = iota
	UpdateConflict
	UpdateNotFound
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateApplied:
		return "applied"
	case UpdateConflict:
		return "conflict"
	case UpdateNotFound:
		return "not_found"
	}
	return "unknown"
}

// Store persists orders.
type Store interface {
	Create(ctx context.Context, order *models.Order) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Query(ctx context.Context, filters Filters, dir SortDirection) ([]models.Order, error)
	ConditionalUpdate(ctx context.Context, id uuid.UUID, pred Predicate, patch Patch) (UpdateOutcome, error)
}

type store struct {
	db   *gorm.DB
	logg *logger.Logger
	now  func() time.Time
}

// NewStore builds the gorm-backed order store.
func NewStore(db *gorm.DB, logg *logger.Logger) Store {
	return &store{db: db, logg: logg, now: func() time.Time { return time.Now().UTC() }}
}

// Create assigns the id and lifecycle defaults before inserting.
func (s *store) Create(ctx context.Context, order *models.Order) (uuid.UUID, error) {
	if order == nil {
		return uuid.Nil, fmt.Errorf("order required")
	}
	now := s.now()
	order.ID = uuid.New()
	order.Status = enums.OrderStatusPending
	order.DriverID = nil
	order.NearbyNotified = false
	if order.PaymentStatus == "" {
		order.PaymentStatus = enums.PaymentStatusUnpaid
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = enums.PaymentMethodCash
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

// Get returns (nil, nil) when the order does not exist.
func (s *store) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Query runs the filtered query ordered by created_at. If the ordered query
// fails the filtered rows are fetched unordered and sorted in memory instead.
func (s *store) Query(ctx context.Context, filters Filters, dir SortDirection) ([]models.Order, error) {
	var out []models.Order
	err := filters.apply(s.db.WithContext(ctx).Model(&models.Order{})).
		Order(dir.clause()).
		Find(&out).Error
	if err == nil {
		return out, nil
	}

	warnCtx := s.logg.WithFields(ctx, map[string]any{
		"error":     err.Error(),
		"client_id": filters.ClientID,
		"vendor_id": filters.VendorID,
		"driver_id": filters.DriverID,
	})
	s.logg.Warn(warnCtx, "orders.query.ordered_failed_using_fallback")

	out = nil
	if err := filters.apply(s.db.WithContext(ctx).Model(&models.Order{})).Find(&out).Error; err != nil {
		return nil, err
	}
	sortByCreatedAt(out, dir)
	return out, nil
}

func sortByCreatedAt(list []models.Order, dir SortDirection) {
	slices.SortStableFunc(list, func(a, b models.Order) int {
		if dir == OldestFirst {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// ConditionalUpdate applies patch in a single UPDATE guarded by pred. When no
// row changes, a follow-up existence check separates a failed predicate from
// a missing order.
func (s *store) ConditionalUpdate(ctx context.Context, id uuid.UUID, pred Predicate, patch Patch) (UpdateOutcome, error) {
	q := pred.apply(s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id))
	res := q.UpdateColumns(patch.columns(s.now()))
	if res.Error != nil {
		return UpdateConflict, res.Error
	}
	if res.RowsAffected > 0 {
		return UpdateApplied, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return UpdateConflict, err
	}
	if count == 0 {
		return UpdateNotFound, nil
	}
	return UpdateConflict, nil
}
