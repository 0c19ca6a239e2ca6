package catalog

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
)

// Repository manages persistence for rentable products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	LockActiveBySlugs(ctx context.Context, slugs []string) ([]models.Product, error)
	UpdateFields(ctx context.Context, slug string, capacity int, isActive bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("slug ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Order("slug ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockActiveBySlugs selects the active products FOR UPDATE. Rows are locked in
// slug order so two admissions over overlapping product sets cannot deadlock.
// Must run inside a transaction obtained through WithTx.
func (r *repository) LockActiveBySlugs(ctx context.Context, slugs []string) ([]models.Product, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	ordered := append([]string(nil), slugs...)
	sort.Strings(ordered)

	var products []models.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slug IN ? AND is_active = ?", ordered, true).
		Order("slug ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) UpdateFields(ctx context.Context, slug string, capacity int, isActive bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ?", slug).
		Updates(map[string]any{
			"capacity":   capacity,
			"is_active":  isActive,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
