package controllers

import (
	"net/http"

	"github.com/angelmondragon/relacksation-backend/api/responses"
	"github.com/angelmondragon/relacksation-backend/api/validators"
	"github.com/angelmondragon/relacksation-backend/internal/admission"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

type customerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
	Phone string `json:"phone" validate:"required,max=40"`
}

type addressRequest struct {
	Line1 string `json:"line1" validate:"required,max=200"`
	City  string `json:"city" validate:"required,max=100"`
	State string `json:"state" validate:"required,max=100"`
	Zip   string `json:"zip" validate:"required,max=20"`
}

type bookingRequest struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Products  []string        `json:"products" validate:"required,min=1"`
	Customer  customerRequest `json:"customer"`
	Address   addressRequest  `json:"address"`
	Notes     *string         `json:"notes" validate:"omitempty,max=2000"`
}

func (r bookingRequest) toInput() (admission.BookingInput, error) {
	start, err := validators.ParseDateField("startDate", r.StartDate)
	if err != nil {
		return admission.BookingInput{}, err
	}
	end, err := validators.ParseDateField("endDate", r.EndDate)
	if err != nil {
		return admission.BookingInput{}, err
	}
	var notes *string
	if r.Notes != nil {
		trimmed := validators.SanitizeString(*r.Notes, 2000)
		notes = &trimmed
	}
	return admission.BookingInput{
		Start:    start,
		End:      end,
		Products: r.Products,
		Customer: admission.Customer{
			Name:  validators.SanitizeString(r.Customer.Name, 200),
			Email: r.Customer.Email,
			Phone: validators.SanitizeString(r.Customer.Phone, 40),
		},
		Address: admission.Address{
			Line1: validators.SanitizeString(r.Address.Line1, 200),
			City:  validators.SanitizeString(r.Address.City, 100),
			State: validators.SanitizeString(r.Address.State, 100),
			Zip:   validators.SanitizeString(r.Address.Zip, 20),
		},
		Notes: notes,
	}, nil
}

type bookingCreatedResponse struct {
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// CreateBooking runs admission for a public booking request. Capacity
// conflicts surface as 409 naming the product and date.
func CreateBooking(svc admission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		var payload bookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Admit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bookingCreatedResponse{
			BookingID: booking.ID.String(),
			Status:    string(booking.Status),
			Message:   "Booking request created successfully",
		})
	}
}
