package admission

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/relacksation-backend/internal/availability"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

func d(s string) types.Date { return types.MustParseDate(s) }

func snapshot(bookings ...models.Booking) availability.Snapshot {
	return availability.Snapshot{
		Products: []models.Product{
			{Slug: "sauna", Capacity: 1, IsActive: true},
			{Slug: "cold-plunge", Capacity: 2, IsActive: true},
			{Slug: "fire-pit", Capacity: 1, IsActive: true},
		},
		Bookings: bookings,
	}
}

func booked(start, end string, status enums.BookingStatus, products ...string) models.Booking {
	return models.Booking{StartDate: d(start), EndDate: d(end), Status: status, Products: pq.StringArray(products)}
}

func req(start, end string, products ...string) Request {
	return Request{Start: d(start), End: d(end), Products: products}
}

func requireCapacity(t *testing.T, err error, product, date string) map[string]any {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeCapacityExceeded, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, product, details["product"])
	assert.Equal(t, date, details["date"])
	return details
}

func TestEvaluateRejectsOverlapOnFirstNight(t *testing.T) {
	snap := snapshot(booked("2024-06-01", "2024-06-03", enums.BookingStatusConfirmed, "sauna"))

	err := Evaluate(req("2024-06-01", "2024-06-03", "sauna"), snap)
	details := requireCapacity(t, err, "sauna", "2024-06-01")
	assert.Equal(t, 1, details["used"])
	assert.Equal(t, 1, details["capacity"])
	_, blocked := details["blocked"]
	assert.False(t, blocked)
}

func TestEvaluateHalfOpenBoundaries(t *testing.T) {
	snap := snapshot(booked("2024-06-01", "2024-06-03", enums.BookingStatusConfirmed, "sauna"))

	assert.NoError(t, Evaluate(req("2024-06-03", "2024-06-04", "sauna"), snap))
	assert.NoError(t, Evaluate(req("2024-05-30", "2024-06-01", "sauna"), snap))
	requireCapacity(t, Evaluate(req("2024-05-30", "2024-06-02", "sauna"), snap), "sauna", "2024-06-01")
}

func TestEvaluateIgnoresCanceled(t *testing.T) {
	snap := snapshot(booked("2024-06-01", "2024-06-03", enums.BookingStatusCanceled, "sauna"))
	assert.NoError(t, Evaluate(req("2024-06-01", "2024-06-03", "sauna"), snap))
}

func TestEvaluateUsesCapacity(t *testing.T) {
	snap := snapshot(booked("2024-06-01", "2024-06-02", enums.BookingStatusPending, "cold-plunge"))
	assert.NoError(t, Evaluate(req("2024-06-01", "2024-06-02", "cold-plunge"), snap))

	snap.Bookings = append(snap.Bookings, booked("2024-06-01", "2024-06-02", enums.BookingStatusConfirmed, "cold-plunge"))
	requireCapacity(t, Evaluate(req("2024-06-01", "2024-06-02", "cold-plunge"), snap), "cold-plunge", "2024-06-01")
}

func TestEvaluateReportsChronologicalThenRequestOrder(t *testing.T) {
	snap := snapshot(
		booked("2024-06-03", "2024-06-04", enums.BookingStatusConfirmed, "cold-plunge"),
		booked("2024-06-03", "2024-06-04", enums.BookingStatusConfirmed, "cold-plunge"),
		booked("2024-06-02", "2024-06-03", enums.BookingStatusConfirmed, "sauna"),
	)
	requireCapacity(t, Evaluate(req("2024-06-01", "2024-06-05", "cold-plunge", "sauna"), snap), "sauna", "2024-06-02")

	snap = snapshot(booked("2024-06-01", "2024-06-02", enums.BookingStatusConfirmed, "sauna", "fire-pit"))
	requireCapacity(t, Evaluate(req("2024-06-01", "2024-06-02", "fire-pit", "sauna"), snap), "fire-pit", "2024-06-01")
}

func TestEvaluateBlockedDate(t *testing.T) {
	snap := snapshot()
	snap.Blocks = []models.BlockedDate{{Date: d("2024-06-02"), AllProducts: false, Products: pq.StringArray{"fire-pit"}, IsActive: true}}

	assert.NoError(t, Evaluate(req("2024-06-01", "2024-06-04", "sauna"), snap))
	details := requireCapacity(t, Evaluate(req("2024-06-01", "2024-06-04", "sauna", "fire-pit"), snap), "fire-pit", "2024-06-02")
	assert.Equal(t, true, details["blocked"])

	// block on the checkout day does not matter
	assert.NoError(t, Evaluate(req("2024-05-31", "2024-06-02", "fire-pit"), snap))
}

func TestEvaluateValidation(t *testing.T) {
	snap := snapshot()
	cases := []struct {
		name string
		req  Request
		code pkgerrors.Code
	}{
		{name: "same day", req: req("2024-06-01", "2024-06-01", "sauna"), code: pkgerrors.CodeInvalidDateRange},
		{name: "inverted", req: req("2024-06-02", "2024-06-01", "sauna"), code: pkgerrors.CodeInvalidDateRange},
		{name: "zero dates", req: Request{Products: []string{"sauna"}}, code: pkgerrors.CodeInvalidDateRange},
		{name: "no products", req: req("2024-06-01", "2024-06-02"), code: pkgerrors.CodeValidation},
		{name: "blank products", req: req("2024-06-01", "2024-06-02", " "), code: pkgerrors.CodeValidation},
		{name: "unknown", req: req("2024-06-01", "2024-06-02", "sauna", "hot-tub"), code: pkgerrors.CodeUnknownProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Evaluate(tc.req, snap)
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
}

func TestNormalizeProductsDedupes(t *testing.T) {
	out, err := NormalizeProducts([]string{" sauna", "fire-pit", "sauna "})
	require.NoError(t, err)
	assert.Equal(t, []string{"sauna", "fire-pit"}, out)
}

func TestNormalizeProductsRejectsBlankSlug(t *testing.T) {
	_, err := NormalizeProducts([]string{"sauna", "  ", "fire-pit"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]any{"field": "products", "index": 1}, typed.Details())
}

func TestEvaluateCapsBookingLength(t *testing.T) {
	snap := snapshot()

	// 2024 is a leap year: 366 nights
	assert.NoError(t, Evaluate(req("2024-01-01", "2025-01-01", "sauna"), snap))

	err := Evaluate(req("2024-01-01", "2025-01-02", "sauna"), snap)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidDateRange, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultMaxNights, details["maxNights"])

	err = Evaluate(req("1900-01-01", "2900-01-01", "sauna", "cold-plunge", "fire-pit"), snap)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidDateRange))

	weekly := req("2024-06-01", "2024-06-09", "sauna")
	weekly.MaxNights = 7
	assert.True(t, pkgerrors.Is(Evaluate(weekly, snap), pkgerrors.CodeInvalidDateRange))
	weekly.End = d("2024-06-08")
	assert.NoError(t, Evaluate(weekly, snap))
}
