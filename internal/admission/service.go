package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/internal/availability"
	"github.com/angelmondragon/relacksation-backend/internal/blockouts"
	"github.com/angelmondragon/relacksation-backend/internal/bookings"
	"github.com/angelmondragon/relacksation-backend/internal/catalog"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/metrics"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

var contactValidator = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Address struct {
	Line1 string
	City  string
	State string
	Zip   string
}

// BookingInput is a public booking request.
type BookingInput struct {
	Start    types.Date
	End      types.Date
	Products []string
	Customer Customer
	Address  Address
	Notes    *string
}

// Service admits bookings. Capacity check and insert share one transaction
// that holds row locks on the requested products, so concurrent admissions
// for a product are serialized.
type Service interface {
	Admit(ctx context.Context, input BookingInput) (*models.Booking, error)
}

type service struct {
	tx        txRunner
	products  catalog.Repository
	bookings  bookings.Repository
	blocks    blockouts.Repository
	outbox    outbox.Emitter
	maxNights int
	metrics   *metrics.BookingMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the admission service. maxNights bounds the length of a
// single booking.
func NewService(
	tx txRunner,
	products catalog.Repository,
	bookingRepo bookings.Repository,
	blocks blockouts.Repository,
	emitter outbox.Emitter,
	maxNights int,
	m *metrics.BookingMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if bookingRepo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if blocks == nil {
		return nil, fmt.Errorf("blockout repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if maxNights <= 0 {
		return nil, fmt.Errorf("max booking nights must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:        tx,
		products:  products,
		bookings:  bookingRepo,
		blocks:    blocks,
		outbox:    emitter,
		maxNights: maxNights,
		metrics:   m,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Admit(ctx context.Context, input BookingInput) (*models.Booking, error) {
	started := s.now()
	booking, err := s.admit(ctx, input)
	s.metrics.ObserveAdmission(s.now().Sub(started))
	s.metrics.IncAdmission(outcomeFor(err))
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithBookingID(ctx, booking.ID.String()), "booking admitted")
	return booking, nil
}

func (s *service) admit(ctx context.Context, input BookingInput) (*models.Booking, error) {
	if err := ValidateRange(input.Start, input.End, s.maxNights); err != nil {
		return nil, err
	}
	products, err := NormalizeProducts(input.Products)
	if err != nil {
		return nil, err
	}
	if err := validateContact(input.Customer, input.Address); err != nil {
		return nil, err
	}

	req := Request{Start: input.Start, End: input.End, Products: products, MaxNights: s.maxNights}
	lastNight := input.End.AddDays(-1)
	booking := &models.Booking{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(input.Customer.Name),
		CustomerEmail: strings.ToLower(strings.TrimSpace(input.Customer.Email)),
		CustomerPhone: strings.TrimSpace(input.Customer.Phone),
		AddressLine1:  strings.TrimSpace(input.Address.Line1),
		AddressCity:   strings.TrimSpace(input.Address.City),
		AddressState:  strings.TrimSpace(input.Address.State),
		AddressZip:    strings.TrimSpace(input.Address.Zip),
		Notes:         trimmedOrNil(input.Notes),
		Products:      pq.StringArray(products),
		StartDate:     input.Start,
		EndDate:       input.End,
		Status:        enums.BookingStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.products.WithTx(tx).LockActiveBySlugs(ctx, products)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}
		overlapping, err := s.bookings.WithTx(tx).FindOverlapping(ctx, input.Start, input.End)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load overlapping bookings")
		}
		blocks, err := s.blocks.WithTx(tx).ListActiveInRange(ctx, &input.Start, &lastNight)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked dates")
		}

		snap := availability.Snapshot{Products: locked, Bookings: overlapping, Blocks: blocks}
		if err := Evaluate(req, snap); err != nil {
			return err
		}

		if err := s.bookings.WithTx(tx).Insert(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert booking")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Data: payloads.BookingCreatedEvent{
				BookingID:     booking.ID,
				CustomerName:  booking.CustomerName,
				CustomerEmail: booking.CustomerEmail,
				Products:      products,
				StartDate:     booking.StartDate.String(),
				EndDate:       booking.EndDate.String(),
				Nights:        booking.Nights(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit booking created")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "admit booking")
	}
	return booking, nil
}

func validateContact(c Customer, a Address) error {
	var missing []string
	required := []struct {
		field string
		value string
	}{
		{"customer.name", c.Name},
		{"customer.email", c.Email},
		{"customer.phone", c.Phone},
		{"address.line1", a.Line1},
		{"address.city", a.City},
		{"address.state", a.State},
		{"address.zip", a.Zip},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer and address details are required").
			WithDetails(map[string]any{"missing": missing})
	}
	if err := contactValidator.Var(strings.TrimSpace(c.Email), "email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email is invalid").
			WithDetails(map[string]any{"field": "customer.email"})
	}
	return nil
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeAccepted
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeCapacityExceeded:
		return metrics.OutcomeCapacityExceeded
	case pkgerrors.CodeValidation, pkgerrors.CodeInvalidDateRange, pkgerrors.CodeUnknownProduct:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
