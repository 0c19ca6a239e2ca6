package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

type CustomerDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AddressDTO struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// BookingDTO is the admin view of a ledger entry.
type BookingDTO struct {
	ID        uuid.UUID           `json:"id"`
	Customer  CustomerDTO         `json:"customer"`
	Address   AddressDTO          `json:"address"`
	Products  []string            `json:"products"`
	StartDate types.Date          `json:"startDate"`
	EndDate   types.Date          `json:"endDate"`
	Nights    int                 `json:"nights"`
	Status    enums.BookingStatus `json:"status"`
	Notes     *string             `json:"notes,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// ListResult is one page of bookings.
type ListResult struct {
	Bookings   []BookingDTO    `json:"bookings"`
	Pagination pagination.Meta `json:"pagination"`
}

func ToDTO(b models.Booking) BookingDTO {
	return BookingDTO{
		ID: b.ID,
		Customer: CustomerDTO{
			Name:  b.CustomerName,
			Email: b.CustomerEmail,
			Phone: b.CustomerPhone,
		},
		Address: AddressDTO{
			Line1: b.AddressLine1,
			City:  b.AddressCity,
			State: b.AddressState,
			Zip:   b.AddressZip,
		},
		Products:  append([]string{}, b.Products...),
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Nights:    b.Nights(),
		Status:    b.Status,
		Notes:     b.Notes,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
