package bookings

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

// ListQuery filters the admin booking listing.
type ListQuery struct {
	Status *enums.BookingStatus
	Page   pagination.Params
}

// Repository manages persistence for the booking ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOverlapping(ctx context.Context, start, endExclusive types.Date) ([]models.Booking, error)
	Insert(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, query ListQuery) ([]models.Booking, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) error
	ListStalePending(ctx context.Context, endedBefore types.Date, limit int) ([]models.Booking, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindOverlapping returns every non-canceled booking whose [start_date,
// end_date) intersects [start, endExclusive).
func (r *repository) FindOverlapping(ctx context.Context, start, endExclusive types.Date) ([]models.Booking, error) {
	var rows []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status <> ?", enums.BookingStatusCanceled).
		Where("start_date < ? AND end_date > ?", endExclusive, start).
		Order("start_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Insert(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Booking, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Booking{})
	if query.Status != nil {
		base = base.Where("status = ?", *query.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page.Normalize()
	var rows []models.Booking
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
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

// ListStalePending returns pending bookings whose stay ended before
// endedBefore, oldest first.
func (r *repository) ListStalePending(ctx context.Context, endedBefore types.Date, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.BookingStatusPending).
		Where("end_date < ?", endedBefore).
		Order("end_date ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
