package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit writes event inside tx and returns the envelope event id. Payloads
// that know how to validate themselves are checked before anything is stored.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) (uuid.UUID, error) {
	if tx == nil {
		return uuid.Nil, errors.New("transaction required")
	}
	if event.AggregateID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("emit %s: aggregate id required", event.EventType)
	}
	if v, ok := event.Data.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return uuid.Nil, fmt.Errorf("emit %s: %w", event.EventType, err)
		}
	}

	now := time.Now().UTC()
	row, err := buildRow(event, now)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return uuid.Nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":       row.ID.String(),
			"event_type":     event.EventType,
			"aggregate_id":   event.AggregateID.String(),
			"aggregate_type": event.AggregateType,
		}), "outbox.event.queued")
	}
	return row.ID, nil
}

func buildRow(event DomainEvent, now time.Time) (models.OutboxEvent, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	version := event.Version
	if version <= 0 {
		version = 1
	}

	id := uuid.New()
	envelope, err := json.Marshal(PayloadEnvelope{
		Version:    version,
		EventID:    id.String(),
		OccurredAt: occurredAt,
		Actor:      event.Actor,
		Data:       data,
	})
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("encode %s envelope: %w", event.EventType, err)
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(envelope),
		CreatedAt:     now,
	}, nil
}
