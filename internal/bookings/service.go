package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the admin-facing booking ledger operations. Creation goes
// through admission, never through this service.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, status *enums.BookingStatus, page pagination.Params) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.BookingStatus, actor *outbox.ActorRef) (*models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Booking, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
}

// NewService builds the booking ledger service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, status *enums.BookingStatus, page pagination.Params) (*ListResult, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid booking status")
	}
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, ListQuery{Status: status, Page: page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	result := &ListResult{
		Bookings:   make([]BookingDTO, 0, len(rows)),
		Pagination: pagination.NewMeta(page, total),
	}
	for _, row := range rows {
		result.Bookings = append(result.Bookings, ToDTO(row))
	}
	return result, nil
}

// UpdateStatus applies an admin status change. Setting the current status
// again is a no-op; canceled bookings cannot be revived because that would
// consume capacity without passing admission.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.BookingStatus, actor *outbox.ActorRef) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid booking status")
	}

	var result *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		previous := booking.Status
		if previous == next {
			result = booking
			return nil
		}
		if !previous.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking status transition not allowed").
				WithDetails(map[string]any{"from": previous, "to": next})
		}
		if err := repo.UpdateStatus(ctx, id, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		booking.Status = next

		event := outbox.DomainEvent{
			EventType:     enums.EventBookingStatusChanged,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         actor,
			Data: payloads.BookingStatusChangedEvent{
				BookingID:      booking.ID,
				PreviousStatus: previous,
				Status:         next,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit booking status changed")
		}
		result = booking
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*models.Booking, error) {
	return s.UpdateStatus(ctx, id, enums.BookingStatusCanceled, actor)
}
