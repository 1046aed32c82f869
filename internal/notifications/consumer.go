package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox/idempotency"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox/payloads"
	"github.com/ayimolou/ayimolou-backend/pkg/outbox/registry"
)

// WorkerName scopes the worker's delivery ledger.
const WorkerName = "notification-worker"

type inboxWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// TokenLookup resolves a user's device push token; "" means none registered.
type TokenLookup interface {
	FCMToken(ctx context.Context, userID string) (string, error)
}

// ConsumerParams wires the notification worker.
type ConsumerParams struct {
	Repository   inboxWriter
	Tokens       TokenLookup
	Pusher       Pusher
	Subscription *pubsub.Subscriber
	Deliveries   *idempotency.Ledger
	Logger       *logger.Logger
}

// Consumer turns notification_requested events into device pushes and inbox
// rows.
type Consumer struct {
	repo         inboxWriter
	tokens       TokenLookup
	pusher       Pusher
	subscription *pubsub.Subscriber
	deliveries   *idempotency.Ledger
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token lookup required")
	}
	if params.Pusher == nil {
		return nil, fmt.Errorf("pusher required")
	}
	if params.Deliveries == nil {
		return nil, fmt.Errorf("delivery ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventNotificationRequested, 1, registry.JSONDecoder[payloads.NotificationRequestedEvent]())
	return &Consumer{
		repo:         params.Repository,
		tokens:       params.Tokens,
		pusher:       params.Pusher,
		subscription: params.Subscription,
		deliveries:   params.Deliveries,
		decoders:     decoders,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("notification subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	decoded, err := c.decoders.Decode(enums.EventNotificationRequested, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	payload := decoded.(*payloads.NotificationRequestedEvent)

	claim, err := c.deliveries.Claim(ctx, eventID)
	if err != nil {
		c.logg.Error(logCtx, "delivery claim failed", err)
		return processResult{nack: true}
	}
	if !claim.Fresh {
		if !claim.ClaimedAt.IsZero() {
			logCtx = c.logg.WithField(logCtx, "claimed_at", claim.ClaimedAt.Format(time.RFC3339))
		}
		c.logg.Info(logCtx, "event already delivered")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"recipient_id":      payload.RecipientID,
		"order_id":          payload.OrderID.String(),
		"notification_type": payload.Type,
	})
	if err := c.deliver(ctx, logCtx, eventID, *payload); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if err := c.deliveries.Release(ctx, eventID); err != nil {
			c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "delivery claim release failed")
		}
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) deliver(ctx, logCtx context.Context, eventID uuid.UUID, payload payloads.NotificationRequestedEvent) error {
	token, err := c.tokens.FCMToken(ctx, payload.RecipientID)
	if err != nil {
		return fmt.Errorf("lookup push token: %w", err)
	}

	status := enums.PushStatusSent
	if token == "" {
		status = enums.PushStatusSkipped
		c.logg.Warn(logCtx, "no push token registered; push skipped")
	} else if err := c.pusher.Push(ctx, PushMessage{
		Token: token,
		Title: payload.Title,
		Body:  payload.Body,
		Data:  payload.Data,
	}); err != nil {
		return err
	}

	data, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}
	notification := &models.Notification{
		EventID:     eventID,
		RecipientID: payload.RecipientID,
		OrderID:     payload.OrderID,
		Type:        payload.Type,
		Title:       payload.Title,
		Body:        payload.Body,
		Data:        data,
		PushStatus:  status,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	c.logg.Info(logCtx, "notification delivered")
	return nil
}
