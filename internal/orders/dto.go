package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayimolou/ayimolou-backend/internal/geo"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

// DeliveryAddressDTO is the delivery destination as exposed over HTTP.
type DeliveryAddressDTO struct {
	Address     string     `json:"address"`
	Coordinates *geo.Point `json:"coordinates,omitempty"`
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	ClientID        string              `json:"clientId"`
	VendorID        string              `json:"vendorId"`
	DriverID        *string             `json:"driverId"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	Items           types.OrderItems    `json:"items"`
	TotalPrice      decimal.Decimal     `json:"totalPrice"`
	DeliveryAddress DeliveryAddressDTO  `json:"deliveryAddress"`
	Notes           *string             `json:"notes,omitempty"`
	NearbyNotified  bool                `json:"nearbyNotified"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// NewOrderDTO maps a stored order to its API shape.
func NewOrderDTO(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		ClientID:        o.ClientID,
		VendorID:        o.VendorID,
		DriverID:        o.DriverID,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		Items:           o.Items,
		TotalPrice:      o.TotalPrice,
		DeliveryAddress: DeliveryAddressDTO{Address: o.DeliveryAddress},
		Notes:           o.Notes,
		NearbyNotified:  o.NearbyNotified,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.HasDeliveryCoordinates() {
		dto.DeliveryAddress.Coordinates = &geo.Point{Lat: *o.DeliveryLat, Lng: *o.DeliveryLng}
	}
	return dto
}

// NewOrderDTOs maps a list of orders, never returning nil.
func NewOrderDTOs(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, NewOrderDTO(o))
	}
	return out
}
