package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/pkg/enums"
)

// Notification is the inbox copy of a push sent (or skipped) for a user.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID              `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	RecipientID string                 `gorm:"column:recipient_id;type:text;not null;index"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	Type        enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title       string                 `gorm:"column:title;type:text;not null"`
	Body        string                 `gorm:"column:body;type:text;not null"`
	Data        json.RawMessage        `gorm:"column:data;type:jsonb"`
	PushStatus  enums.PushStatus       `gorm:"column:push_status;type:text;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
