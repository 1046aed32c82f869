package models

import (
	"time"

	"github.com/ayimolou/ayimolou-backend/pkg/enums"
)

// User mirrors an identity-provider account. ID is the provider uid.
type User struct {
	ID          string           `gorm:"column:id;type:text;primaryKey"`
	Email       *string          `gorm:"column:email;type:text"`
	PhoneNumber *string          `gorm:"column:phone_number;type:text"`
	DisplayName *string          `gorm:"column:display_name;type:text"`
	PhotoURL    *string          `gorm:"column:photo_url;type:text"`
	Role        enums.UserRole   `gorm:"column:role;type:text;not null"`
	Status      enums.UserStatus `gorm:"column:status;type:text;not null"`
	FCMToken    *string          `gorm:"column:fcm_token;type:text"`
	Driver      DriverProfile    `gorm:"embedded;embeddedPrefix:driver_"`
	CreatedAt   time.Time        `gorm:"column:created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// DriverProfile is the delivery-specific part of a livreur account.
type DriverProfile struct {
	IsAvailable        bool               `gorm:"column:is_available;not null;default:false"`
	CurrentLat         *float64           `gorm:"column:current_lat"`
	CurrentLng         *float64           `gorm:"column:current_lng"`
	LastLocationUpdate *time.Time         `gorm:"column:last_location_update"`
	VehicleType        *enums.VehicleType `gorm:"column:vehicle_type;type:text"`
	VehiclePlate       *string            `gorm:"column:vehicle_plate;type:text"`
}

// HasLocation reports whether a position has been recorded.
func (p DriverProfile) HasLocation() bool {
	return p.CurrentLat != nil && p.CurrentLng != nil
}

// IsDriver reports whether the account carries a driver profile.
func (u User) IsDriver() bool {
	return u.Role == enums.UserRoleDriver
}
