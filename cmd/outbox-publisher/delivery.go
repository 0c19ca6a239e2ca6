package main

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox/registry"
)

type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictDead
)

// delivery is the outcome of one publish attempt, settled afterwards against
// the claiming transaction.
type delivery struct {
	row     models.OutboxEvent
	verdict verdict
	reason  enums.OutboxDLQErrorReason
	err     error
	topic   string
	eventID string
}

var errAttemptsExhausted = errors.New("max publish attempts reached")

func (s *Service) deliver(ctx context.Context, row models.OutboxEvent) delivery {
	d := delivery{row: row}
	if row.AttemptCount >= s.maxAttempts {
		return d.dead(enums.OutboxDLQReasonMaxAttempts, errAttemptsExhausted)
	}

	resolved, err := s.registry.Resolve(row)
	if err != nil {
		return d.dead(enums.OutboxDLQReasonNonRetryable, err)
	}
	d.topic = resolved.Descriptor.Topic
	d.eventID = resolved.Envelope.EventID

	err = s.publishResolved(ctx, row, resolved)
	switch {
	case err == nil:
		d.verdict = verdictPublished
		return d
	case registry.IsNonRetryable(err):
		return d.dead(enums.OutboxDLQReasonNonRetryable, err)
	}

	d.row.AttemptCount++
	if d.row.AttemptCount >= s.maxAttempts {
		return d.dead(enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("%w: %w", errAttemptsExhausted, err))
	}
	d.verdict = verdictRetry
	d.err = err
	return d
}

func (d delivery) dead(reason enums.OutboxDLQErrorReason, err error) delivery {
	d.verdict = verdictDead
	d.reason = reason
	d.err = err
	return d
}

// settle writes the row bookkeeping for d. An error here means the database
// refused the write and the whole batch must roll back.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, d delivery) error {
	ctx = s.logg.WithFields(ctx, d.logFields(s.batchSize))
	eventType := string(d.row.EventType)

	switch d.verdict {
	case verdictPublished:
		if err := s.repo.MarkPublishedTx(tx, d.row.ID, s.now().UTC()); err != nil {
			return fmt.Errorf("mark %s published: %w", d.row.ID, err)
		}
		s.metrics.IncPublished(eventType)
		s.logg.Info(ctx, "outbox event published")

	case verdictRetry:
		if err := s.repo.MarkFailedTx(tx, d.row.ID, d.err); err != nil {
			return fmt.Errorf("mark %s failed: %w", d.row.ID, err)
		}
		s.metrics.IncFailed(eventType)
		s.logg.Warn(s.logg.WithField(ctx, "error", d.err.Error()), "outbox publish failed, will retry")

	case verdictDead:
		message := d.err.Error()
		entry := models.OutboxDLQ{
			EventID:       d.row.ID,
			EventType:     d.row.EventType,
			AggregateType: d.row.AggregateType,
			AggregateID:   d.row.AggregateID,
			Payload:       d.row.Payload,
			ErrorReason:   d.reason,
			ErrorMessage:  &message,
			AttemptCount:  d.row.AttemptCount,
			FailedAt:      s.now().UTC(),
		}
		if err := s.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("dead-letter %s: %w", d.row.ID, err)
		}
		if err := s.repo.DeleteTx(tx, d.row.ID); err != nil {
			return fmt.Errorf("remove dead-lettered %s: %w", d.row.ID, err)
		}
		s.metrics.IncDLQ(eventType)
		s.logg.Warn(s.logg.WithField(ctx, "error", message), "outbox event dead-lettered")
	}
	return nil
}

func (d delivery) logFields(batchSize int) map[string]any {
	fields := map[string]any{
		"outbox_id":      d.row.ID.String(),
		"event_type":     d.row.EventType,
		"aggregate_type": d.row.AggregateType,
		"aggregate_id":   d.row.AggregateID.String(),
		"attempt_count":  d.row.AttemptCount,
		"batch_size":     batchSize,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.eventID != "" {
		fields["event_id"] = d.eventID
	}
	if d.reason != "" {
		fields["error_reason"] = d.reason
	}
	if d.row.LastError != nil {
		fields["last_error"] = *d.row.LastError
	}
	return fields
}
