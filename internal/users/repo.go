package users

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user by identity uid. gorm.ErrRecordNotFound is returned
// when absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateColumns patches only the given columns of one user.
func (r *Repository) UpdateColumns(ctx context.Context, id string, columns map[string]any) error {
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

// FCMToken returns the device push token of a user, or "" when none is set.
func (r *Repository) FCMToken(ctx context.Context, id string) (string, error) {
	user, err := r.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if user.FCMToken == nil {
		return "", nil
	}
	return *user.FCMToken, nil
}
