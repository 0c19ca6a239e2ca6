package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

const (
	defaultStalePendingBatch = 100
	systemActor              = "system:cron"
)

type stalePendingReader interface {
	ListStalePending(ctx context.Context, endedBefore types.Date, limit int) ([]models.Booking, error)
}

type bookingCanceler interface {
	Cancel(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Booking, error)
}

type StalePendingJobParams struct {
	Logger    *logger.Logger
	Reader    stalePendingReader
	Bookings  bookingCanceler
	GraceDays int
	BatchSize int
}

// NewStalePendingJob cancels pending requests the owner never confirmed once
// their stay ended more than GraceDays ago. Cancellation goes through the
// booking service so each one emits a status change event.
func NewStalePendingJob(params StalePendingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("booking reader required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking service required")
	}
	if params.GraceDays <= 0 {
		return nil, fmt.Errorf("grace days must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStalePendingBatch
	}
	return &stalePendingJob{
		logg:      params.Logger,
		reader:    params.Reader,
		bookings:  params.Bookings,
		graceDays: params.GraceDays,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type stalePendingJob struct {
	logg      *logger.Logger
	reader    stalePendingReader
	bookings  bookingCanceler
	graceDays int
	batch     int
	now       func() time.Time
}

func (j *stalePendingJob) Name() string { return "stale-pending-bookings" }

func (j *stalePendingJob) Run(ctx context.Context) (int64, error) {
	cutoff := types.DateOf(j.now().UTC()).AddDays(-j.graceDays)
	rows, err := j.reader.ListStalePending(ctx, cutoff, j.batch)
	if err != nil {
		return 0, fmt.Errorf("list stale pending: %w", err)
	}

	actor := &outbox.ActorRef{AdminID: systemActor}
	var canceled int64
	var errs error
	for _, booking := range rows {
		if _, err := j.bookings.Cancel(ctx, booking.ID, actor); err != nil {
			errs = errors.Join(errs, fmt.Errorf("cancel %s: %w", booking.ID, err))
			continue
		}
		canceled++
		logCtx := j.logg.WithBookingID(ctx, booking.ID.String())
		logCtx = j.logg.WithField(logCtx, "end_date", booking.EndDate.String())
		j.logg.Info(logCtx, "stale pending booking canceled")
	}
	return canceled, errs
}
