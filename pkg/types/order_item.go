package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemOption is an optional extra selected on an order line.
type ItemOption struct {
	Name  string           `json:"name" validate:"required"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// OrderItem is a single product line captured when the order is placed.
type OrderItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Options   []ItemOption    `json:"options,omitempty" validate:"omitempty,dive"`
}

// OrderItems persists order lines as a JSON document.
type OrderItems []OrderItem

// Value marshals the items into JSON for storage.
func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("order items: marshal %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored JSON document.
func (items *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*items = OrderItems{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order items: unsupported scan type %T", value)
	}
	var decoded OrderItems
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("order items: unmarshal %w", err)
	}
	*items = decoded
	return nil
}

// Subtotal sums price times quantity plus priced options for every line.
func (items OrderItems) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		unit := item.Price
		for _, opt := range item.Options {
			if opt.Price != nil {
				unit = unit.Add(*opt.Price)
			}
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
