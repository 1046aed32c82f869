package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/pkg/redis"
)

// Ledger records which outbox events a worker has already delivered, so a
// redelivered Pub/Sub message does not push the same notification twice.
// Keys look like `ay:idempotency:delivered:<worker>:<event_id>` and hold the
// claim time.
type Ledger struct {
	store  redis.IdempotencyStore
	worker string
	ttl    time.Duration
	now    func() time.Time
}

// Claim is the outcome of claiming an event for delivery.
type Claim struct {
	// Fresh is false when another delivery already claimed the event.
	Fresh bool
	// ClaimedAt is when the winning claim was taken; zero if unknown.
	ClaimedAt time.Time
}

// NewLedger scopes claims to one worker. A zero ttl keeps claims forever.
func NewLedger(store redis.IdempotencyStore, worker string, ttl time.Duration) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	worker = strings.TrimSpace(worker)
	if worker == "" || strings.Contains(worker, ":") {
		return nil, fmt.Errorf("invalid worker name %q", worker)
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Ledger{store: store, worker: worker, ttl: ttl, now: time.Now}, nil
}

// Claim marks eventID as taken by this worker. On a duplicate it reports when
// the earlier claim happened.
func (l *Ledger) Claim(ctx context.Context, eventID uuid.UUID) (Claim, error) {
	key, err := l.key(eventID)
	if err != nil {
		return Claim{}, err
	}
	at := l.now().UTC()
	set, err := l.store.SetNX(ctx, key, at.Format(time.RFC3339Nano), l.ttl)
	if err != nil {
		return Claim{}, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	if set {
		return Claim{Fresh: true, ClaimedAt: at}, nil
	}

	// The earlier claim may expire between SetNX and Get; the duplicate
	// verdict still stands.
	raw, err := l.store.Get(ctx, key)
	if err != nil || raw == "" {
		return Claim{}, nil
	}
	prior, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return Claim{}, nil
	}
	return Claim{ClaimedAt: prior}, nil
}

// Release drops a claim so the next redelivery can retry the event.
func (l *Ledger) Release(ctx context.Context, eventID uuid.UUID) error {
	key, err := l.key(eventID)
	if err != nil {
		return err
	}
	return l.store.Del(ctx, key)
}

func (l *Ledger) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return l.store.IdempotencyKey("delivered:"+l.worker, eventID.String()), nil
}
