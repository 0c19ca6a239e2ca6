package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// BlockedDate removes a day from bookable availability, either for every
// product or for the listed product slugs. Rows are soft deleted.
type BlockedDate struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Date        types.Date        `gorm:"column:date;type:date;not null"`
	Reason      enums.BlockReason `gorm:"column:reason;type:block_reason;not null"`
	Description *string           `gorm:"column:description"`
	AllProducts bool              `gorm:"column:all_products;not null"`
	Products    pq.StringArray    `gorm:"column:products;type:text[]"`
	BlockedBy   string            `gorm:"column:blocked_by;not null"`
	IsActive    bool              `gorm:"column:is_active;not null"`
	DeletedAt   *time.Time        `gorm:"column:deleted_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Covers reports whether the block applies to the product slug.
func (b BlockedDate) Covers(slug string) bool {
	if !b.IsActive {
		return false
	}
	if b.AllProducts {
		return true
	}
	for _, candidate := range b.Products {
		if candidate == slug {
			return true
		}
	}
	return false
}
