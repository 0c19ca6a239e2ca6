package blockouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// ListQuery filters the admin blocked date listing. Start and End are
// inclusive.
type ListQuery struct {
	Start  *types.Date
	End    *types.Date
	Reason *enums.BlockReason
	Active bool
	Page   pagination.Params
}

// Repository manages persistence for blocked dates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, blocks []models.BlockedDate) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlockedDate, error)
	FindActiveByDates(ctx context.Context, dates []types.Date) ([]models.BlockedDate, error)
	ListActiveInRange(ctx context.Context, start, end *types.Date) ([]models.BlockedDate, error)
	List(ctx context.Context, query ListQuery) ([]models.BlockedDate, int64, error)
	Save(ctx context.Context, block *models.BlockedDate) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a blocked date repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, blocks []models.BlockedDate) error {
	if len(blocks) == 0 {
		return nil
	}
	for i := range blocks {
		if blocks[i].ID == uuid.Nil {
			blocks[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&blocks).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BlockedDate, error) {
	var block models.BlockedDate
	if err := r.db.WithContext(ctx).First(&block, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *repository) FindActiveByDates(ctx context.Context, dates []types.Date) ([]models.BlockedDate, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var rows []models.BlockedDate
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND date IN ?", true, dates).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveInRange returns active blocks with start <= date <= end. Nil
// bounds are open.
func (r *repository) ListActiveInRange(ctx context.Context, start, end *types.Date) ([]models.BlockedDate, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	if end != nil {
		q = q.Where("date <= ?", *end)
	}
	var rows []models.BlockedDate
	if err := q.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.BlockedDate, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.BlockedDate{}).Where("is_active = ?", query.Active)
	if query.Start != nil {
		base = base.Where("date >= ?", *query.Start)
	}
	if query.End != nil {
		base = base.Where("date <= ?", *query.End)
	}
	if query.Reason != nil {
		base = base.Where("reason = ?", *query.Reason)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page.Normalize()
	var rows []models.BlockedDate
	if err := base.Session(&gorm.Session{}).
		Order("date ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Save(ctx context.Context, block *models.BlockedDate) error {
	block.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(block).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.BlockedDate{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"deleted_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
