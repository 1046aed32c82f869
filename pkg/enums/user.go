package enums

import "fmt"

// UserRole is the marketplace role attached to an identity.
type UserRole string

const (
	UserRoleClient UserRole = "client"
	UserRoleVendor UserRole = "vendeur"
	UserRoleDriver UserRole = "livreur"
	UserRoleAdmin  UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleClient,
	UserRoleVendor,
	UserRoleDriver,
	UserRoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// UserStatus flags whether an account may use the platform.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusSuspended
}

// VehicleType is the driver's declared means of transport.
type VehicleType string

const (
	VehicleTypeMoto    VehicleType = "moto"
	VehicleTypeVelo    VehicleType = "velo"
	VehicleTypeVoiture VehicleType = "voiture"
)

func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypeMoto, VehicleTypeVelo, VehicleTypeVoiture:
		return true
	}
	return false
}

// ParseVehicleType converts raw input into a VehicleType.
func ParseVehicleType(value string) (VehicleType, error) {
	v := VehicleType(value)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid vehicle type %q", value)
	}
	return v, nil
}
