package notifications

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox/payloads"
)

const (
	titleNewOrder     = "Nouvelle commande ! 🍛"
	bodyNewOrder      = "Vous avez reçu une nouvelle commande sur Ayimolou Express."
	titleStatusUpdate = "Suivi de commande 🍛"
	titleNearby       = "Livreur arrive ! 🛵"
	bodyNearby        = "Votre livreur est à moins de %s de votre adresse. Préparez-vous !"

	defaultNearbyRadiusMeters = 500
)

var statusBodies = map[enums.OrderStatus]string{
	enums.OrderStatusAccepted:   "Votre commande a été acceptée ! ✅",
	enums.OrderStatusPreparing:  "Votre repas est en préparation... 👨‍🍳",
	enums.OrderStatusReady:      "Votre commande est prête ! 🍛",
	enums.OrderStatusDelivering: "Votre repas est en cours de livraison ! 🛵",
	enums.OrderStatusCompleted:  "Commande livrée. Bon appétit ! 🎉",
	enums.OrderStatusCancelled:  "Désolé, votre commande a été annulée. ❌",
}

func newOrderMessage(order models.Order) payloads.NotificationRequestedEvent {
	return payloads.NotificationRequestedEvent{
		RecipientID: order.VendorID,
		OrderID:     order.ID,
		Type:        enums.NotificationTypeNewOrder,
		Title:       titleNewOrder,
		Body:        bodyNewOrder,
		Data:        messageData(order, enums.NotificationTypeNewOrder),
	}
}

func statusUpdateMessage(order models.Order) payloads.NotificationRequestedEvent {
	body, ok := statusBodies[order.Status]
	if !ok {
		body = fmt.Sprintf("Le statut de votre commande est maintenant : %s", order.Status)
	}
	data := messageData(order, enums.NotificationTypeStatusUpdate)
	data["status"] = string(order.Status)
	return payloads.NotificationRequestedEvent{
		RecipientID: order.ClientID,
		OrderID:     order.ID,
		Type:        enums.NotificationTypeStatusUpdate,
		Status:      order.Status,
		Title:       titleStatusUpdate,
		Body:        body,
		Data:        data,
	}
}

func nearbyMessage(order models.Order, radiusMeters float64) payloads.NotificationRequestedEvent {
	return payloads.NotificationRequestedEvent{
		RecipientID: order.ClientID,
		OrderID:     order.ID,
		Type:        enums.NotificationTypeNearby,
		Title:       titleNearby,
		Body:        fmt.Sprintf(bodyNearby, formatDistance(radiusMeters)),
		Data:        messageData(order, enums.NotificationTypeNearby),
	}
}

func messageData(order models.Order, kind enums.NotificationType) map[string]string {
	return map[string]string{
		"orderId": order.ID.String(),
		"type":    string(kind),
	}
}

// formatDistance renders 500 as "500m" and 1500 as "1.5km".
func formatDistance(meters float64) string {
	if meters <= 0 {
		meters = defaultNearbyRadiusMeters
	}
	if meters < 1000 {
		return strconv.FormatFloat(math.Round(meters), 'f', -1, 64) + "m"
	}
	return strconv.FormatFloat(math.Round(meters/100)/10, 'f', -1, 64) + "km"
}
