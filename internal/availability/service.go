package availability

import (
	"context"
	"fmt"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/metrics"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

type productLister interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

type bookingFinder interface {
	FindOverlapping(ctx context.Context, start, endExclusive types.Date) ([]models.Booking, error)
}

type blockLister interface {
	ListActiveInRange(ctx context.Context, start, end types.Date) ([]models.BlockedDate, error)
}

// Service loads a consistent-enough snapshot and runs the engine. Reads are
// not locked; admission re-checks under lock.
type Service interface {
	Query(ctx context.Context, start, end types.Date) (*Calendar, error)
}

type service struct {
	products productLister
	bookings bookingFinder
	blocks   blockLister
	maxDays  int
	metrics  *metrics.BookingMetrics
}

// NewService builds the availability service. maxDays bounds the inclusive
// span of a single query.
func NewService(products productLister, bookings bookingFinder, blocks blockLister, maxDays int, m *metrics.BookingMetrics) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("booking finder required")
	}
	if blocks == nil {
		return nil, fmt.Errorf("block lister required")
	}
	if maxDays <= 0 {
		return nil, fmt.Errorf("max availability days must be positive")
	}
	return &service{
		products: products,
		bookings: bookings,
		blocks:   blocks,
		maxDays:  maxDays,
		metrics:  m,
	}, nil
}

func (s *service) Query(ctx context.Context, start, end types.Date) (*Calendar, error) {
	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "start and end dates are required")
	}
	if start.After(end) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "start date must not be after end date").
			WithDetails(map[string]any{"start": start.String(), "end": end.String()})
	}
	if start.AddDays(s.maxDays - 1).Before(end) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "date range too wide").
			WithDetails(map[string]any{"maxDays": s.maxDays})
	}
	s.metrics.IncAvailabilityQuery()

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	bookings, err := s.bookings.FindOverlapping(ctx, start, end.AddDays(1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bookings")
	}
	blocks, err := s.blocks.ListActiveInRange(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blocked dates")
	}
	return Compute(start, end, Snapshot{Products: products, Bookings: bookings, Blocks: blocks})
}

// ParseRange parses start and end query values, mapping malformed input to
// INVALID_DATE_RANGE.
func ParseRange(rawStart, rawEnd string) (types.Date, types.Date, error) {
	if rawStart == "" || rawEnd == "" {
		return types.Date{}, types.Date{}, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "start and end are required")
	}
	start, err := types.ParseDate(rawStart)
	if err != nil {
		return types.Date{}, types.Date{}, pkgerrors.Wrap(pkgerrors.CodeInvalidDateRange, err, "invalid start date").
			WithDetails(map[string]any{"field": "start"})
	}
	end, err := types.ParseDate(rawEnd)
	if err != nil {
		return types.Date{}, types.Date{}, pkgerrors.Wrap(pkgerrors.CodeInvalidDateRange, err, "invalid end date").
			WithDetails(map[string]any{"field": "end"})
	}
	return start, end, nil
}
