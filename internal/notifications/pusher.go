package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

const defaultPushTimeout = 10 * time.Second

// PushMessage is the device message handed to the push gateway.
type PushMessage struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Pusher delivers one message to a device.
type Pusher interface {
	Push(ctx context.Context, msg PushMessage) error
}

// PubSubPusher publishes push messages to the gateway topic.
type PubSubPusher struct {
	publisher *pubsub.Publisher
	timeout   time.Duration
}

func NewPubSubPusher(publisher *pubsub.Publisher) (*PubSubPusher, error) {
	if publisher == nil {
		return nil, errors.New("push publisher required")
	}
	return &PubSubPusher{publisher: publisher, timeout: defaultPushTimeout}, nil
}

func (p *PubSubPusher) Push(ctx context.Context, msg PushMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}
	pushCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	attrs := map[string]string{}
	if kind, ok := msg.Data["type"]; ok {
		attrs["type"] = kind
	}
	result := p.publisher.Publish(pushCtx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := result.Get(pushCtx); err != nil {
		return fmt.Errorf("publish push message: %w", err)
	}
	return nil
}
