package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultDLQRetentionDays    = 90
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedEventPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetterPruner interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Events        publishedEventPruner
	DeadLetters   deadLetterPruner
	RetentionDays int
	DLQDays       int
}

// NewOutboxRetentionJob prunes delivered outbox rows and old dead letters.
// Undelivered rows are never removed.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultOutboxRetentionDays
	}
	dlqDays := params.DLQDays
	if dlqDays <= 0 {
		dlqDays = defaultDLQRetentionDays
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		events:    params.Events,
		dead:      params.DeadLetters,
		retention: retention,
		dlqDays:   dlqDays,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	events    publishedEventPruner
	dead      deadLetterPruner
	retention int
	dlqDays   int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (int64, error) {
	now := j.now().UTC()
	eventCutoff := now.AddDate(0, 0, -j.retention)
	dlqCutoff := now.AddDate(0, 0, -j.dlqDays)

	var published, dead int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if published, err = j.events.DeletePublishedBefore(ctx, tx, eventCutoff); err != nil {
			return fmt.Errorf("prune published events: %w", err)
		}
		if j.dead == nil {
			return nil
		}
		if dead, err = j.dead.DeleteFailedBefore(ctx, tx, dlqCutoff); err != nil {
			return fmt.Errorf("prune dead letters: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"event_cutoff":     eventCutoff,
		"dlq_cutoff":       dlqCutoff,
		"events_deleted":   published,
		"dead_letters_del": dead,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return published + dead, nil
}
