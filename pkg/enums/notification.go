package enums

import "fmt"

// NotificationType classifies push notifications sent to marketplace users.
type NotificationType string

const (
	NotificationTypeNewOrder     NotificationType = "NEW_ORDER"
	NotificationTypeStatusUpdate NotificationType = "STATUS_UPDATE"
	NotificationTypeNearby       NotificationType = "NEARBY"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewOrder,
	NotificationTypeStatusUpdate,
	NotificationTypeNearby,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// PushStatus records what the notification worker did with a push.
type PushStatus string

const (
	PushStatusSent    PushStatus = "sent"
	PushStatusSkipped PushStatus = "skipped"
)
