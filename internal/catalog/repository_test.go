package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db/dbtest"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
)

func TestRepositoryListActiveSkipsInactive(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.SeedDefaultCatalog(t, conn)
	require.NoError(t, conn.Model(&models.Product{}).Where("slug = ?", "fire-pit").Update("is_active", false).Error)

	repo := NewRepository(conn)
	active, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "cold-plunge", active[0].Slug)
	assert.Equal(t, "sauna", active[1].Slug)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepositoryFindBySlug(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.SeedDefaultCatalog(t, conn)
	repo := NewRepository(conn)

	product, err := repo.FindBySlug(context.Background(), "sauna")
	require.NoError(t, err)
	assert.Equal(t, 1, product.Capacity)
	assert.Equal(t, "600", product.NightlyPrice.String())
	assert.Equal(t, "150", product.SetupFee.String())

	_, err = repo.FindBySlug(context.Background(), "hot-tub")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryLockActiveBySlugs(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.SeedDefaultCatalog(t, conn)
	repo := NewRepository(conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).LockActiveBySlugs(context.Background(), []string{"sauna", "fire-pit", "hot-tub"})
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.Equal(t, "fire-pit", locked[0].Slug)
		assert.Equal(t, "sauna", locked[1].Slug)
		return nil
	})
	require.NoError(t, err)

	none, err := repo.LockActiveBySlugs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepositoryUpdateFields(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.SeedDefaultCatalog(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.UpdateFields(ctx, "cold-plunge", 5, false))
	product, err := repo.FindBySlug(ctx, "cold-plunge")
	require.NoError(t, err)
	assert.Equal(t, 5, product.Capacity)
	assert.False(t, product.IsActive)

	assert.ErrorIs(t, repo.UpdateFields(ctx, "hot-tub", 1, true), gorm.ErrRecordNotFound)
}
