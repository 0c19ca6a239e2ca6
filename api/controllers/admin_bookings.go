package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/relacksation-backend/api/responses"
	"github.com/angelmondragon/relacksation-backend/api/validators"
	"github.com/angelmondragon/relacksation-backend/internal/bookings"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
)

type bookingStatusRequest struct {
	Status string `json:"status" validate:"required,bookingstatus"`
}

type bookingStatusResponse struct {
	BookingID string              `json:"bookingId"`
	Status    enums.BookingStatus `json:"status"`
	Message   string              `json:"message"`
	Booking   bookings.BookingDTO `json:"booking"`
}

func statusResponse(b *models.Booking, message string) bookingStatusResponse {
	return bookingStatusResponse{
		BookingID: b.ID.String(),
		Status:    b.Status,
		Message:   message,
		Booking:   bookings.ToDTO(*b),
	}
}

// AdminListBookings lists the ledger newest first, optionally by ?status=.
func AdminListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		var status *enums.BookingStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseBookingStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), status, pagination.Params{Page: page, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam("bookingId", chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings.ToDTO(*booking))
	}
}

// AdminUpdateBookingStatus moves a booking through its lifecycle.
func AdminUpdateBookingStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam("bookingId", chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bookingStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseBookingStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, next, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statusResponse(updated, "Booking status updated successfully"))
	}
}

func AdminCancelBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam("bookingId", chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		canceled, err := svc.Cancel(r.Context(), id, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statusResponse(canceled, "Booking canceled successfully"))
	}
}
