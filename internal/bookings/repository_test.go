package bookings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db/dbtest"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

func TestRepositoryFindOverlappingHalfOpen(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	inside := dbtest.SeedBooking(t, conn, "2025-01-10", "2025-01-12", enums.BookingStatusPending, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-05", "2025-01-10", enums.BookingStatusConfirmed, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-12", "2025-01-14", enums.BookingStatusConfirmed, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-09", "2025-01-13", enums.BookingStatusCanceled, "sauna")

	rows, err := repo.FindOverlapping(ctx, types.MustParseDate("2025-01-10"), types.MustParseDate("2025-01-12"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inside.ID, rows[0].ID)
	assert.Equal(t, []string{"sauna"}, []string(rows[0].Products))
	assert.Equal(t, "2025-01-10", rows[0].StartDate.String())
	assert.Equal(t, "2025-01-12", rows[0].EndDate.String())
}

func TestRepositoryFindOverlappingSpansWiderRange(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	dbtest.SeedBooking(t, conn, "2025-03-01", "2025-03-31", enums.BookingStatusConfirmed, "cold-plunge", "fire-pit")

	rows, err := repo.FindOverlapping(context.Background(), types.MustParseDate("2025-03-10"), types.MustParseDate("2025-03-11"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Includes("fire-pit"))
	assert.Equal(t, 30, rows[0].Nights())
}

func TestRepositoryUpdateStatusAndList(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := dbtest.SeedBooking(t, conn, "2025-01-01", "2025-01-02", enums.BookingStatusPending, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-03", "2025-01-04", enums.BookingStatusPending, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-05", "2025-01-06", enums.BookingStatusPending, "sauna")

	require.NoError(t, repo.UpdateStatus(ctx, first.ID, enums.BookingStatusConfirmed))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), enums.BookingStatusConfirmed), gorm.ErrRecordNotFound)

	confirmed := enums.BookingStatusConfirmed
	rows, total, err := repo.List(ctx, ListQuery{Status: &confirmed, Page: pagination.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)

	rows, total, err = repo.List(ctx, ListQuery{Page: pagination.Params{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)
}

func TestRepositoryInsertAssignsID(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seeded := dbtest.SeedBooking(t, conn, "2025-02-01", "2025-02-03", enums.BookingStatusPending, "sauna")
	copyRow := seeded
	copyRow.ID = uuid.Nil
	require.NoError(t, repo.Insert(ctx, &copyRow))
	assert.NotEqual(t, uuid.Nil, copyRow.ID)

	loaded, err := repo.FindByID(ctx, copyRow.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusPending, loaded.Status)
}

func TestRepositoryListStalePending(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	stale := dbtest.SeedBooking(t, conn, "2025-01-01", "2025-01-03", enums.BookingStatusPending, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-01", "2025-01-03", enums.BookingStatusConfirmed, "sauna")
	dbtest.SeedBooking(t, conn, "2025-01-08", "2025-01-12", enums.BookingStatusPending, "sauna")

	rows, err := repo.ListStalePending(context.Background(), types.MustParseDate("2025-01-10"), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)
}
