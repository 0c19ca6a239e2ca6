package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/relacksation-backend/api/responses"
	"github.com/angelmondragon/relacksation-backend/api/validators"
	"github.com/angelmondragon/relacksation-backend/internal/blockouts"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

const defaultBlockoutPageSize = 50

type blockoutCreateRequest struct {
	Date                 string   `json:"date"`
	Reason               string   `json:"reason" validate:"required,blockreason"`
	Description          *string  `json:"description" validate:"omitempty,max=500"`
	IsAllProductsBlocked *bool    `json:"isAllProductsBlocked"`
	Products             []string `json:"products"`
}

type blockoutBulkRequest struct {
	Dates                []string `json:"dates" validate:"required,min=1,max=366"`
	Reason               string   `json:"reason" validate:"required,blockreason"`
	Description          *string  `json:"description" validate:"omitempty,max=500"`
	IsAllProductsBlocked *bool    `json:"isAllProductsBlocked"`
	Products             []string `json:"products"`
}

type blockoutUpdateRequest struct {
	Reason               *string   `json:"reason" validate:"omitempty,blockreason"`
	Description          *string   `json:"description" validate:"omitempty,max=500"`
	IsAllProductsBlocked *bool     `json:"isAllProductsBlocked"`
	Products             *[]string `json:"products"`
	IsActive             *bool     `json:"isActive"`
}

type blockoutMutationResponse struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message"`
	BlockedDate blockouts.BlockedDateDTO `json:"blockedDate"`
}

type blockoutBulkResponse struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message"`
	BlockedDates []blockouts.BlockedDateDTO `json:"blockedDates"`
}

func parseReason(raw string) (enums.BlockReason, error) {
	reason, err := enums.ParseBlockReason(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason value")
	}
	return reason, nil
}

func AdminCreateBlockout(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}

		var payload blockoutCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseDateField("date", payload.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := parseReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), blockouts.CreateInput{
			Date:        date,
			Reason:      reason,
			Description: payload.Description,
			AllProducts: payload.IsAllProductsBlocked,
			Products:    payload.Products,
		}, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, blockoutMutationResponse{
			Success:     true,
			Message:     "Date blocked successfully",
			BlockedDate: blockouts.ToDTO(*created),
		})
	}
}

// AdminBulkCreateBlockouts blocks several dates at once; either all are
// blocked or none are.
func AdminBulkCreateBlockouts(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}

		var payload blockoutBulkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dates := make([]types.Date, 0, len(payload.Dates))
		for _, raw := range payload.Dates {
			d, err := validators.ParseDateField("dates", raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			dates = append(dates, d)
		}
		reason, err := parseReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.BulkCreate(r.Context(), blockouts.BulkCreateInput{
			Dates:       dates,
			Reason:      reason,
			Description: payload.Description,
			AllProducts: payload.IsAllProductsBlocked,
			Products:    payload.Products,
		}, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dtos := blockouts.ToDTOs(created)
		responses.WriteSuccessStatus(w, http.StatusCreated, blockoutBulkResponse{
			Success:      true,
			Message:      pluralBlocked(len(dtos)),
			BlockedDates: dtos,
		})
	}
}

// AdminListBlockouts filters by ?startDate&endDate&reason&isActive with paging.
func AdminListBlockouts(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}

		query := blockouts.ListQuery{Active: true}
		var err error
		if query.Start, err = validators.ParseQueryDate(r, "startDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.End, err = validators.ParseQueryDate(r, "endDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("reason")); raw != "" {
			reason, err := parseReason(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			query.Reason = &reason
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("isActive")); raw != "" {
			query.Active = strings.EqualFold(raw, "true")
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultBlockoutPageSize, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Page = pagination.Params{Page: page, Limit: limit}

		result, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetBlockout(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam("blockoutId", chi.URLParam(r, "blockoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		block, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blockouts.ToDTO(*block))
	}
}

func AdminUpdateBlockout(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam("blockoutId", chi.URLParam(r, "blockoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload blockoutUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := blockouts.UpdateInput{
			Description: payload.Description,
			AllProducts: payload.IsAllProductsBlocked,
			Products:    payload.Products,
			IsActive:    payload.IsActive,
		}
		if payload.Reason != nil {
			reason, err := parseReason(*payload.Reason)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Reason = &reason
		}

		updated, err := svc.Update(r.Context(), id, input, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blockoutMutationResponse{
			Success:     true,
			Message:     "Blocked date updated successfully",
			BlockedDate: blockouts.ToDTO(*updated),
		})
	}
}

// AdminDeleteBlockout deactivates a blocked date; the row is kept for history.
func AdminDeleteBlockout(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam("blockoutId", chi.URLParam(r, "blockoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"success": true, "message": "Blocked date removed successfully"})
	}
}

func AdminBlockoutStats(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}
		start, err := validators.ParseQueryDate(r, "startDate")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseQueryDate(r, "endDate")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminCheckBlockout answers whether ?product= is blocked on ?date=.
func AdminCheckBlockout(svc blockouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blockout service unavailable"))
			return
		}
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product := strings.TrimSpace(r.URL.Query().Get("product"))
		if date == nil || product == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date and product are required"))
			return
		}
		blocked, err := svc.IsBlocked(r.Context(), *date, product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"date": date.String(), "product": product, "blocked": blocked})
	}
}

func pluralBlocked(n int) string {
	if n == 1 {
		return "1 date blocked successfully"
	}
	return strconv.Itoa(n) + " dates blocked successfully"
}
