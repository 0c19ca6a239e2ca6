package payloads

import (
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/google/uuid"
)

// BookingCreatedEvent is emitted when a booking request is admitted as pending.
// Downstream consumers use it to start the offline payment follow-up.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Products      []string  `json:"products"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Nights        int       `json:"nights"`
}

// BookingStatusChangedEvent reports an admin status transition.
type BookingStatusChangedEvent struct {
	BookingID      uuid.UUID           `json:"booking_id"`
	PreviousStatus enums.BookingStatus `json:"previous_status"`
	Status         enums.BookingStatus `json:"status"`
}

// BlockoutCreatedEvent reports a new blocked date.
type BlockoutCreatedEvent struct {
	BlockoutID  uuid.UUID         `json:"blockout_id"`
	Date        string            `json:"date"`
	Reason      enums.BlockReason `json:"reason"`
	AllProducts bool              `json:"all_products"`
	Products    []string          `json:"products,omitempty"`
}

// BlockoutRemovedEvent reports a soft-deleted blocked date.
type BlockoutRemovedEvent struct {
	BlockoutID uuid.UUID `json:"blockout_id"`
	Date       string    `json:"date"`
}

// ProductUpdatedEvent reports an admin capacity or activation change.
type ProductUpdatedEvent struct {
	Slug     string `json:"slug"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
}
