package users

import (
	"time"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
)

// UserDTO is the transport shape of a user. The push token is never exposed.
type UserDTO struct {
	UID           string            `json:"uid"`
	Email         *string           `json:"email,omitempty"`
	PhoneNumber   *string           `json:"phoneNumber,omitempty"`
	DisplayName   *string           `json:"displayName,omitempty"`
	PhotoURL      *string           `json:"photoURL,omitempty"`
	Role          enums.UserRole    `json:"role"`
	Status        enums.UserStatus  `json:"status"`
	DriverProfile *DriverProfileDTO `json:"driverProfile,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type DriverProfileDTO struct {
	IsAvailable        bool               `json:"isAvailable"`
	CurrentLocation    *geo.Point         `json:"currentLocation,omitempty"`
	LastLocationUpdate *time.Time         `json:"lastLocationUpdate,omitempty"`
	VehicleType        *enums.VehicleType `json:"vehicleType,omitempty"`
	VehiclePlate       *string            `json:"vehiclePlate,omitempty"`
}

// SyncUserDTO carries identity-provider profile fields. Nil fields are left
// untouched on existing users.
type SyncUserDTO struct {
	UID         string
	Email       *string
	DisplayName *string
	PhotoURL    *string
	PhoneNumber *string
	Role        *enums.UserRole
	FCMToken    *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		UID:         u.ID,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Role:        u.Role,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.IsDriver() {
		profile := &DriverProfileDTO{
			IsAvailable:        u.Driver.IsAvailable,
			LastLocationUpdate: u.Driver.LastLocationUpdate,
			VehicleType:        u.Driver.VehicleType,
			VehiclePlate:       u.Driver.VehiclePlate,
		}
		if u.Driver.HasLocation() {
			profile.CurrentLocation = &geo.Point{Lat: *u.Driver.CurrentLat, Lng: *u.Driver.CurrentLng}
		}
		dto.DriverProfile = profile
	}
	return dto
}

// ToModel builds a new user, defaulting to an active client.
func (s SyncUserDTO) ToModel() *models.User {
	role := enums.UserRoleClient
	if s.Role != nil {
		role = *s.Role
	}
	return &models.User{
		ID:          s.UID,
		Email:       s.Email,
		PhoneNumber: s.PhoneNumber,
		DisplayName: s.DisplayName,
		PhotoURL:    s.PhotoURL,
		Role:        role,
		Status:      enums.UserStatusActive,
		FCMToken:    s.FCMToken,
	}
}

// columns lists the provided fields as a targeted patch.
func (s SyncUserDTO) columns() map[string]any {
	cols := map[string]any{}
	if s.Email != nil {
		cols["email"] = *s.Email
	}
	if s.DisplayName != nil {
		cols["display_name"] = *s.DisplayName
	}
	if s.PhotoURL != nil {
		cols["photo_url"] = *s.PhotoURL
	}
	if s.PhoneNumber != nil {
		cols["phone_number"] = *s.PhoneNumber
	}
	if s.Role != nil {
		cols["role"] = *s.Role
	}
	if s.FCMToken != nil {
		cols["fcm_token"] = *s.FCMToken
	}
	return cols
}
