package drivers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/internal/orders"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

var validate = validator.New()

// Service gates driver self-service operations.
type Service struct {
	repo     *Repository
	orders   orders.Store
	throttle *Throttle
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo *Repository, store orders.Store, throttle *Throttle, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if throttle == nil {
		return nil, fmt.Errorf("throttle required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, orders: store, throttle: throttle, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

// requireSelfDriver enforces that actorID acts on itself and is a livreur.
func (s *Service) requireSelfDriver(ctx context.Context, actorID, driverID string) (*models.User, error) {
	if actorID == "" || actorID != driverID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "drivers may only act on their own profile")
	}
	user, err := s.repo.FindByID(ctx, driverID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load driver")
	}
	if user == nil || user.Role != enums.UserRoleDriver {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "livreur role required")
	}
	return user, nil
}

// RequireAvailableDriver gates the delivery-board operations: the caller must
// exist, hold the livreur role and be marked available.
func (s *Service) RequireAvailableDriver(ctx context.Context, driverID string) error {
	user, err := s.repo.FindByID(ctx, driverID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "driver profile not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load driver")
	}
	if user.Role != enums.UserRoleDriver {
		return pkgerrors.New(pkgerrors.CodeForbidden, "livreur role required")
	}
	if !user.Driver.IsAvailable {
		return pkgerrors.New(pkgerrors.CodeForbidden, "driver is not available")
	}
	return nil
}

// HasActiveDelivery reports whether driverID holds a DELIVERING order.
func (s *Service) HasActiveDelivery(ctx context.Context, driverID string) (bool, error) {
	active, err := s.orders.Query(ctx, orders.Filters{
		DriverID: driverID,
		Statuses: []enums.OrderStatus{enums.OrderStatusDelivering},
	}, orders.NewestFirst)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "query active deliveries")
	}
	return len(active) > 0, nil
}

// ReportLocation checks, in order: self, livreur role, an active delivery and
// finally the coordinates, then hands the position to the throttle.
func (s *Service) ReportLocation(ctx context.Context, actorID, driverID string, coords types.Coordinates) (LocationResult, error) {
	if _, err := s.requireSelfDriver(ctx, actorID, driverID); err != nil {
		return LocationResult{}, err
	}
	active, err := s.HasActiveDelivery(ctx, driverID)
	if err != nil {
		return LocationResult{}, err
	}
	if !active {
		return LocationResult{}, pkgerrors.New(pkgerrors.CodeForbidden, "location updates require an active delivery")
	}
	if err := validate.Struct(coords); err != nil {
		return LocationResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "latitude and longitude must be valid numbers")
	}
	return s.throttle.UpdateLocation(ctx, driverID, geo.Point{Lat: *coords.Latitude, Lng: *coords.Longitude})
}

// SetAvailability toggles whether the driver accepts new deliveries.
func (s *Service) SetAvailability(ctx context.Context, actorID, driverID string, available *bool) error {
	if _, err := s.requireSelfDriver(ctx, actorID, driverID); err != nil {
		return err
	}
	if available == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "isAvailable must be a boolean")
	}
	if err := s.repo.SetAvailability(ctx, driverID, *available, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update availability")
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithDriverID(ctx, driverID), map[string]any{"is_available": *available}), "drivers.availability.updated")
	return nil
}

// GetLocation returns the last stored position of a driver.
func (s *Service) GetLocation(ctx context.Context, driverID string) (*geo.Point, error) {
	user, err := s.repo.FindByID(ctx, driverID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load driver")
	}
	if user == nil || !user.Driver.HasLocation() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Driver location not available")
	}
	return &geo.Point{Lat: *user.Driver.CurrentLat, Lng: *user.Driver.CurrentLng}, nil
}
