package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a rentable item with a per-day unit capacity.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug         string          `gorm:"column:slug;not null;uniqueIndex"`
	Name         string          `gorm:"column:name;not null"`
	DisplayName  string          `gorm:"column:display_name;not null"`
	Description  *string         `gorm:"column:description"`
	Category     *string         `gorm:"column:category"`
	Capacity     int             `gorm:"column:capacity;not null"`
	NightlyPrice decimal.Decimal `gorm:"column:nightly_price;type:numeric(10,2);not null"`
	SetupFee     decimal.Decimal `gorm:"column:setup_fee;type:numeric(10,2);not null"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
