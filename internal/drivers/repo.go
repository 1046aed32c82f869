package drivers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
)

// Repository writes the driver portion of user rows. Every write is a
// targeted column patch so concurrent profile syncs are not clobbered.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID returns gorm.ErrRecordNotFound when the user is absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UpdateLocation(ctx context.Context, id string, position geo.Point, at time.Time) error {
	return r.patch(ctx, id, map[string]any{
		"driver_current_lat":          position.Lat,
		"driver_current_lng":          position.Lng,
		"driver_last_location_update": at,
		"updated_at":                  at,
	})
}

func (r *Repository) SetAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	return r.patch(ctx, id, map[string]any{
		"driver_is_available": available,
		"updated_at":          at,
	})
}

func (r *Repository) patch(ctx context.Context, id string, columns map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
