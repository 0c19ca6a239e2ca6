package blockouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/relacksation-backend/internal/catalog"
	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/db/dbtest"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

var fixedNow = time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.OpenClient(t)
	dbtest.SeedDefaultCatalog(t, client.DB())
	svc, err := NewService(
		NewRepository(client.DB()),
		catalog.NewRepository(client.DB()),
		client,
		outbox.NewService(outbox.NewRepository(client.DB()), nil),
	)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return fixedNow }
	return svc, client
}

func date(s string) types.Date { return types.MustParseDate(s) }

func boolPtr(v bool) *bool { return &v }

func countOutbox(t *testing.T, client *db.Client, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func TestCreateDefaultsToAllProducts(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	block, err := svc.Create(ctx, CreateInput{Date: date("2025-07-04"), Reason: enums.BlockReasonHoliday}, &outbox.ActorRef{AdminID: "owner@example.com"})
	require.NoError(t, err)
	assert.True(t, block.AllProducts)
	assert.True(t, block.IsActive)
	assert.Equal(t, "owner@example.com", block.BlockedBy)
	assert.Equal(t, int64(1), countOutbox(t, client, enums.EventBlockoutCreated))

	blocked, err := svc.IsBlocked(ctx, date("2025-07-04"), "sauna")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = svc.IsBlocked(ctx, date("2025-07-05"), "sauna")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestCreateRejectsActiveDuplicate(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	dbtest.SeedBlock(t, client.DB(), "2025-07-04", enums.BlockReasonMaintenance)

	_, err := svc.Create(ctx, CreateInput{Date: date("2025-07-04"), Reason: enums.BlockReasonHoliday}, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeAlreadyBlocked, typed.Code())
	assert.Equal(t, map[string]any{"dates": []string{"2025-07-04"}}, typed.Details())
	assert.Equal(t, int64(0), countOutbox(t, client, enums.EventBlockoutCreated))
}

func TestCreateProductScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	block, err := svc.Create(ctx, CreateInput{
		Date:        date("2025-07-05"),
		Reason:      enums.BlockReasonWeather,
		AllProducts: boolPtr(false),
		Products:    []string{"sauna", "fire-pit", "sauna"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fire-pit", "sauna"}, []string(block.Products))
	assert.Equal(t, defaultBlockedBy, block.BlockedBy)

	blocked, err := svc.IsBlocked(ctx, date("2025-07-05"), "cold-plunge")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
		code  pkgerrors.Code
	}{
		{name: "bad reason", input: CreateInput{Date: date("2025-07-05"), Reason: "party"}, code: pkgerrors.CodeValidation},
		{name: "missing date", input: CreateInput{Reason: enums.BlockReasonOther}, code: pkgerrors.CodeValidation},
		{name: "scoped without products", input: CreateInput{Date: date("2025-07-05"), Reason: enums.BlockReasonOther, AllProducts: boolPtr(false)}, code: pkgerrors.CodeValidation},
		{name: "unknown product", input: CreateInput{Date: date("2025-07-05"), Reason: enums.BlockReasonOther, AllProducts: boolPtr(false), Products: []string{"hot-tub"}}, code: pkgerrors.CodeUnknownProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input, nil)
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
}

func TestBulkCreateIsAllOrNothing(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	dbtest.SeedBlock(t, client.DB(), "2025-08-02", enums.BlockReasonOther)

	_, err := svc.BulkCreate(ctx, BulkCreateInput{
		Dates:  []types.Date{date("2025-08-01"), date("2025-08-02"), date("2025-08-03")},
		Reason: enums.BlockReasonMaintenance,
	}, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadyBlocked, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, client.DB().Model(&models.BlockedDate{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	created, err := svc.BulkCreate(ctx, BulkCreateInput{
		Dates:  []types.Date{date("2025-08-04"), date("2025-08-05")},
		Reason: enums.BlockReasonMaintenance,
	}, nil)
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Equal(t, int64(2), countOutbox(t, client, enums.EventBlockoutCreated))
}

func TestBulkCreateRejectsDuplicateDates(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.BulkCreate(context.Background(), BulkCreateInput{
		Dates:  []types.Date{date("2025-08-01"), date("2025-08-01")},
		Reason: enums.BlockReasonMaintenance,
	}, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteIsSoftAndFreesDate(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	block := dbtest.SeedBlock(t, client.DB(), "2025-09-01", enums.BlockReasonOwnerBlock)

	require.NoError(t, svc.Delete(ctx, block.ID, nil))
	require.NoError(t, svc.Delete(ctx, block.ID, nil))
	assert.Equal(t, int64(1), countOutbox(t, client, enums.EventBlockoutRemoved))

	stored, err := svc.Get(ctx, block.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.DeletedAt)

	_, err = svc.Create(ctx, CreateInput{Date: date("2025-09-01"), Reason: enums.BlockReasonHoliday}, nil)
	require.NoError(t, err)

	err = svc.Delete(ctx, uuid.New(), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUpdateReactivationCollides(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	old := dbtest.SeedBlock(t, client.DB(), "2025-09-01", enums.BlockReasonOwnerBlock)
	require.NoError(t, svc.Delete(ctx, old.ID, nil))
	dbtest.SeedBlock(t, client.DB(), "2025-09-01", enums.BlockReasonHoliday)

	_, err := svc.Update(ctx, old.ID, UpdateInput{IsActive: boolPtr(true)}, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadyBlocked, pkgerrors.As(err).Code())
}

func TestUpdateScopeAndReason(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	block, err := svc.Create(ctx, CreateInput{Date: date("2025-10-01"), Reason: enums.BlockReasonOther}, nil)
	require.NoError(t, err)

	reason := enums.BlockReasonWeather
	products := []string{"cold-plunge"}
	updated, err := svc.Update(ctx, block.ID, UpdateInput{
		Reason:      &reason,
		AllProducts: boolPtr(false),
		Products:    &products,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.BlockReasonWeather, updated.Reason)
	assert.False(t, updated.AllProducts)

	blocked, err := svc.IsBlocked(ctx, date("2025-10-01"), "sauna")
	require.NoError(t, err)
	assert.False(t, blocked)
	blocked, err = svc.IsBlocked(ctx, date("2025-10-01"), "cold-plunge")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestListFilters(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	dbtest.SeedBlock(t, client.DB(), "2025-01-05", enums.BlockReasonHoliday)
	dbtest.SeedBlock(t, client.DB(), "2025-01-06", enums.BlockReasonMaintenance)
	dbtest.SeedBlock(t, client.DB(), "2025-02-01", enums.BlockReasonHoliday)

	start, end := date("2025-01-01"), date("2025-01-31")
	result, err := svc.List(ctx, ListQuery{Start: &start, End: &end, Active: true, Page: pagination.Params{Page: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Pagination.Total)
	require.Len(t, result.BlockedDates, 2)
	assert.Equal(t, "2025-01-05", result.BlockedDates[0].Date.String())

	holiday := enums.BlockReasonHoliday
	result, err = svc.List(ctx, ListQuery{Reason: &holiday, Active: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Pagination.Total)

	result, err = svc.List(ctx, ListQuery{Active: false})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Pagination.Total)

	_, err = svc.List(ctx, ListQuery{Start: &end, End: &start, Active: true})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidDateRange))
}

func TestStats(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	dbtest.SeedBlock(t, client.DB(), "2025-01-05", enums.BlockReasonHoliday)
	dbtest.SeedBlock(t, client.DB(), "2025-01-06", enums.BlockReasonMaintenance, "sauna")
	dbtest.SeedBlock(t, client.DB(), "2025-02-01", enums.BlockReasonHoliday, "sauna", "fire-pit")

	stats, err := svc.Stats(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBlockedDates)
	assert.Equal(t, []ReasonCount{
		{Reason: enums.BlockReasonHoliday, Count: 2},
		{Reason: enums.BlockReasonMaintenance, Count: 1},
	}, stats.BlockedByReason)
	assert.Equal(t, []MonthCount{{Month: "2025-01", Count: 2}, {Month: "2025-02", Count: 1}}, stats.BlockedByMonth)
	require.Len(t, stats.ProductSpecificBlocks, 2)
	assert.Equal(t, ProductCount{Product: "sauna", ProductName: "sauna", Count: 2}, stats.ProductSpecificBlocks[0])

	start, end := date("2025-02-01"), date("2025-02-28")
	stats, err = svc.Stats(ctx, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBlockedDates)
}
