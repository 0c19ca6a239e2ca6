package bookings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/db/dbtest"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(client.DB()), client, outbox.NewService(outbox.NewRepository(client.DB()), nil))
	require.NoError(t, err)
	return svc, client
}

func countEvents(t *testing.T, client *db.Client, id uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Where("aggregate_id = ?", id).Count(&count).Error)
	return count
}

func TestServiceStatusTransitions(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	booking := dbtest.SeedBooking(t, client.DB(), "2025-01-10", "2025-01-12", enums.BookingStatusPending, "sauna")

	updated, err := svc.UpdateStatus(ctx, booking.ID, enums.BookingStatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusConfirmed, updated.Status)

	updated, err = svc.UpdateStatus(ctx, booking.ID, enums.BookingStatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusPending, updated.Status)

	_, err = svc.UpdateStatus(ctx, booking.ID, enums.BookingStatusPending, nil)
	require.NoError(t, err)

	canceled, err := svc.Cancel(ctx, booking.ID, &outbox.ActorRef{AdminID: "owner@example.com"})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCanceled, canceled.Status)

	assert.Equal(t, int64(3), countEvents(t, client, booking.ID))
}

func TestServiceCanceledIsTerminal(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	booking := dbtest.SeedBooking(t, client.DB(), "2025-01-10", "2025-01-12", enums.BookingStatusCanceled, "sauna")

	_, err := svc.UpdateStatus(ctx, booking.ID, enums.BookingStatusConfirmed, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, int64(0), countEvents(t, client, booking.ID))

	stored, err := svc.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCanceled, stored.Status)
}

func TestServiceErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.UpdateStatus(ctx, uuid.New(), enums.BookingStatus("archived"), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Cancel(ctx, uuid.New(), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	bad := enums.BookingStatus("archived")
	_, err = svc.List(ctx, &bad, pagination.Params{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestServiceListBuildsMeta(t *testing.T) {
	svc, client := newTestService(t)
	for i := 0; i < 3; i++ {
		dbtest.SeedBooking(t, client.DB(), "2025-01-10", "2025-01-12", enums.BookingStatusPending, "sauna")
	}

	result, err := svc.List(context.Background(), nil, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Bookings, 2)
	assert.Equal(t, int64(3), result.Pagination.Total)
	assert.Equal(t, 2, result.Pagination.TotalPages)
	assert.Equal(t, 2, result.Bookings[0].Nights)
	assert.Equal(t, "Test Guest", result.Bookings[0].Customer.Name)
}
