package payloads

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/pkg/enums"
)

// NotificationRequestedEvent asks the notification worker to push a message
// to one user. Title and Body are already localized.
type NotificationRequestedEvent struct {
	RecipientID string                 `json:"recipientId"`
	OrderID     uuid.UUID              `json:"orderId"`
	Type        enums.NotificationType `json:"type"`
	Status      enums.OrderStatus      `json:"status,omitempty"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Data        map[string]string      `json:"data,omitempty"`
}

// Validate rejects events the worker could never deliver.
func (e NotificationRequestedEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.RecipientID) == "":
		return errors.New("recipientId is required")
	case e.OrderID == uuid.Nil:
		return errors.New("orderId is required")
	case !e.Type.IsValid():
		return errors.New("unknown notification type " + string(e.Type))
	case strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Body) == "":
		return errors.New("title or body is required")
	}
	return nil
}
