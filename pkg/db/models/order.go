package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

// Order is a client's delivery order. DriverID stays NULL until a driver is
// assigned and is never cleared afterwards.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ClientID        string              `gorm:"column:client_id;type:text;not null;index"`
	VendorID        string              `gorm:"column:vendor_id;type:text;not null;index"`
	DriverID        *string             `gorm:"column:driver_id;type:text;index"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;index"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Items           types.OrderItems    `gorm:"column:items;type:jsonb;not null"`
	TotalPrice      decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	DeliveryAddress string              `gorm:"column:delivery_address;type:text;not null"`
	DeliveryLat     *float64            `gorm:"column:delivery_lat"`
	DeliveryLng     *float64            `gorm:"column:delivery_lng"`
	Notes           *string             `gorm:"column:notes;type:text"`
	NearbyNotified  bool                `gorm:"column:nearby_notified;not null;default:false"`
	CreatedAt       time.Time           `gorm:"column:created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at"`
}

func (Order) TableName() string { return "orders" }

// HasDeliveryCoordinates reports whether both delivery coordinates are set.
func (o Order) HasDeliveryCoordinates() bool {
	return o.DeliveryLat != nil && o.DeliveryLng != nil
}

// IsAssignedTo reports whether driverID holds the delivery.
func (o Order) IsAssignedTo(driverID string) bool {
	return o.DriverID != nil && *o.DriverID == driverID
}
