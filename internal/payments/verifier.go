package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// SimulatedVerifier stands in for a mobile-money aggregator. It waits for the
// configured delay and accepts every payment.
type SimulatedVerifier struct {
	delay time.Duration
	logg  *logger.Logger
	after func(time.Duration) <-chan time.Time
}

func NewSimulatedVerifier(cfg config.PaymentConfig, logg *logger.Logger) (*SimulatedVerifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.VerificationDelay < 0 {
		return nil, fmt.Errorf("verification delay must not be negative")
	}
	return &SimulatedVerifier{delay: cfg.VerificationDelay, logg: logg, after: time.After}, nil
}

func (v *SimulatedVerifier) Verify(ctx context.Context, order models.Order, phoneNumber string) (bool, error) {
	if strings.TrimSpace(phoneNumber) == "" {
		return false, fmt.Errorf("phone number required")
	}
	logCtx := v.logg.WithOrderID(ctx, order.ID.String())
	logCtx = v.logg.WithField(logCtx, "payment_method", string(order.PaymentMethod))
	v.logg.Info(logCtx, "payments.verify.simulated")

	if v.delay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-v.after(v.delay):
		}
	}
	return true, nil
}
