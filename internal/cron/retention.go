package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/metrics"
)

const (
	outboxRetentionJobName       = "outbox-retention"
	notificationRetentionJobName = "notification-retention"
	day                          = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type inboxPurger interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type purgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// RetentionJob deletes rows older than a fixed window inside one transaction.
type RetentionJob struct {
	name    string
	window  time.Duration
	db      txRunner
	purge   purgeFunc
	logg    *logger.Logger
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

// NewOutboxRetentionJob removes outbox rows that were published, or that
// exhausted their publish attempts, before the retention window.
func NewOutboxRetentionJob(db txRunner, repo outboxPurger, cron config.CronConfig, outbox config.OutboxConfig, logg *logger.Logger, m *metrics.CronJobMetrics) (*RetentionJob, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	maxAttempts := outbox.MaxAttempts
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("outbox max attempts must be positive")
	}
	purge := func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
		return repo.DeletePublishedBefore(ctx, tx, cutoff, maxAttempts)
	}
	return newRetentionJob(outboxRetentionJobName, cron.OutboxRetentionDays, db, purge, logg, m)
}

// NewNotificationRetentionJob trims the notification inbox.
func NewNotificationRetentionJob(db txRunner, repo inboxPurger, cron config.CronConfig, logg *logger.Logger, m *metrics.CronJobMetrics) (*RetentionJob, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newRetentionJob(notificationRetentionJobName, cron.NotificationRetentionDays, db, repo.DeleteOlderThan, logg, m)
}

func newRetentionJob(name string, days int, db txRunner, purge purgeFunc, logg *logger.Logger, m *metrics.CronJobMetrics) (*RetentionJob, error) {
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if days <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", name)
	}
	return &RetentionJob{
		name:    name,
		window:  time.Duration(days) * day,
		db:      db,
		purge:   purge,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

func (j *RetentionJob) Name() string { return j.name }

func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.purge(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.metrics.AddPurged(j.name, deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "cron.retention.purged")
	return nil
}
