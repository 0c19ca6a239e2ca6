package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

type stubProducts struct {
	products []models.Product
	err      error
}

func (s stubProducts) ListActive(context.Context) ([]models.Product, error) {
	return s.products, s.err
}

type stubBookings struct {
	rows         []models.Booking
	err          error
	gotStart     types.Date
	gotEndBefore types.Date
}

func (s *stubBookings) FindOverlapping(_ context.Context, start, endExclusive types.Date) ([]models.Booking, error) {
	s.gotStart = start
	s.gotEndBefore = endExclusive
	return s.rows, s.err
}

type stubBlocks struct {
	rows []models.BlockedDate
	err  error
}

func (s stubBlocks) ListActiveInRange(context.Context, types.Date, types.Date) ([]models.BlockedDate, error) {
	return s.rows, s.err
}

func TestServiceQueryLoadsInclusiveRange(t *testing.T) {
	bookings := &stubBookings{rows: []models.Booking{booking("2024-06-01", "2024-06-03", enums.BookingStatusConfirmed, "sauna")}}
	svc, err := NewService(
		stubProducts{products: []models.Product{product("sauna", 1)}},
		bookings,
		stubBlocks{rows: []models.BlockedDate{block("2024-06-03")}},
		366,
		nil,
	)
	require.NoError(t, err)

	cal, err := svc.Query(context.Background(), d("2024-06-01"), d("2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", bookings.gotStart.String())
	assert.Equal(t, "2024-06-04", bookings.gotEndBefore.String())
	assert.Equal(t, 0, mustCell(t, cal, "2024-06-02", "sauna").Available)
	assert.True(t, mustCell(t, cal, "2024-06-03", "sauna").Blocked)
}

func TestServiceQueryRejectsWideRange(t *testing.T) {
	svc, err := NewService(stubProducts{}, &stubBookings{}, stubBlocks{}, 31, nil)
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), d("2024-01-01"), d("2024-03-01"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidDateRange, pkgerrors.As(err).Code())

	_, err = svc.Query(context.Background(), d("2024-01-02"), d("2024-01-01"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidDateRange))
}

func TestServiceQueryCountsBothEnds(t *testing.T) {
	svc, err := NewService(stubProducts{}, &stubBookings{}, stubBlocks{}, 366, nil)
	require.NoError(t, err)

	cal, err := svc.Query(context.Background(), d("2024-01-01"), d("2024-12-31"))
	require.NoError(t, err)
	assert.Len(t, cal.Days(), 366)

	_, err = svc.Query(context.Background(), d("2024-01-01"), d("2025-01-01"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidDateRange))
}

func TestServiceQueryDependencyFailure(t *testing.T) {
	svc, err := NewService(stubProducts{}, &stubBookings{err: errors.New("connection refused")}, stubBlocks{}, 366, nil)
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), d("2024-01-01"), d("2024-01-02"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestNewServiceValidatesDeps(t *testing.T) {
	_, err := NewService(nil, &stubBookings{}, stubBlocks{}, 366, nil)
	assert.Error(t, err)
	_, err = NewService(stubProducts{}, &stubBookings{}, stubBlocks{}, 0, nil)
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("2024-06-01", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, 2, start.DaysUntil(end))

	for _, tc := range [][2]string{{"", "2024-06-03"}, {"2024-6-1", "2024-06-03"}, {"2024-06-01", "June 3"}} {
		_, _, err := ParseRange(tc[0], tc[1])
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeInvalidDateRange, pkgerrors.As(err).Code())
	}
}
