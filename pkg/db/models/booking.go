package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// Booking occupies every product in Products for the half-open day range
// [StartDate, EndDate).
type Booking struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName  string              `gorm:"column:customer_name;not null"`
	CustomerEmail string              `gorm:"column:customer_email;not null"`
	CustomerPhone string              `gorm:"column:customer_phone;not null"`
	AddressLine1  string              `gorm:"column:address_line1;not null"`
	AddressCity   string              `gorm:"column:address_city;not null"`
	AddressState  string              `gorm:"column:address_state;not null"`
	AddressZip    string              `gorm:"column:address_zip;not null"`
	Notes         *string             `gorm:"column:notes"`
	Products      pq.StringArray      `gorm:"column:products;type:text[];not null"`
	StartDate     types.Date          `gorm:"column:start_date;type:date;not null"`
	EndDate       types.Date          `gorm:"column:end_date;type:date;not null"`
	Status        enums.BookingStatus `gorm:"column:status;type:booking_status;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Includes reports whether the booking contains the product slug.
func (b Booking) Includes(slug string) bool {
	for _, candidate := range b.Products {
		if candidate == slug {
			return true
		}
	}
	return false
}

// Nights is the number of occupied days.
func (b Booking) Nights() int {
	return b.StartDate.DaysUntil(b.EndDate)
}
