package drivers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// SkipReason explains why a location report was not stored.
type SkipReason string

const (
	SkipTooSoon  SkipReason = "too-soon"
	SkipTooClose SkipReason = "too-close"
)

// LocationResult is the outcome of a location report.
type LocationResult struct {
	Applied bool
	Reason  SkipReason
	Detail  string
}

// ProfileStore reads and patches driver profiles.
type ProfileStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLocation(ctx context.Context, id string, position geo.Point, at time.Time) error
}

// Scanner runs the proximity check for a freshly stored position.
type Scanner interface {
	Scan(ctx context.Context, driverID string, position geo.Point) (int, error)
}

// Throttle drops location reports that arrive too often or move too little,
// and kicks off a proximity scan for each stored one.
type Throttle struct {
	profiles    ProfileStore
	scanner     Scanner
	minInterval time.Duration
	minDistance float64
	logg        *logger.Logger
	now         func() time.Time
	wg          sync.WaitGroup
}

func NewThrottle(profiles ProfileStore, scanner Scanner, cfg config.DispatchConfig, logg *logger.Logger) (*Throttle, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile store required")
	}
	if scanner == nil {
		return nil, fmt.Errorf("proximity scanner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Throttle{
		profiles:    profiles,
		scanner:     scanner,
		minInterval: cfg.LocationMinInterval,
		minDistance: cfg.LocationMinDistanceMeters,
		logg:        logg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// UpdateLocation stores position unless the previous report is too recent or
// too near. A skipped report is not an error.
func (t *Throttle) UpdateLocation(ctx context.Context, driverID string, position geo.Point) (LocationResult, error) {
	ctx = t.logg.WithDriverID(ctx, driverID)

	user, err := t.profiles.FindByID(ctx, driverID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LocationResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}
	if err != nil {
		return LocationResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load driver profile")
	}

	now := t.now()
	profile := user.Driver
	if profile.LastLocationUpdate != nil {
		elapsed := now.Sub(*profile.LastLocationUpdate)
		if elapsed < t.minInterval {
			return LocationResult{
				Reason: SkipTooSoon,
				Detail: fmt.Sprintf("Too soon (%dms since last update)", elapsed.Milliseconds()),
			}, nil
		}
	}
	if profile.HasLocation() {
		moved := geo.DistanceMeters(geo.Point{Lat: *profile.CurrentLat, Lng: *profile.CurrentLng}, position)
		if moved < t.minDistance {
			return LocationResult{
				Reason: SkipTooClose,
				Detail: fmt.Sprintf("Too close (%dm)", int(math.Round(moved))),
			}, nil
		}
	}

	if err := t.profiles.UpdateLocation(ctx, driverID, position, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LocationResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return LocationResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store driver location")
	}

	t.scanInBackground(ctx, driverID, position)
	return LocationResult{Applied: true}, nil
}

func (t *Throttle) scanInBackground(ctx context.Context, driverID string, position geo.Point) {
	bg := context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if _, err := t.scanner.Scan(bg, driverID, position); err != nil {
			t.logg.Error(bg, "drivers.proximity.scan_failed", err)
		}
	}()
}

// Wait blocks until in-flight proximity scans finish.
func (t *Throttle) Wait() {
	t.wg.Wait()
}
