package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/relacksation-backend/api/responses"
	"github.com/angelmondragon/relacksation-backend/api/validators"
	"github.com/angelmondragon/relacksation-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

type quoteProductRequest struct {
	ProductID string `json:"productId"`
	ID        string `json:"id"`
	Quantity  int    `json:"quantity"`
}

type quoteRequest struct {
	StartDate  string                `json:"startDate"`
	EndDate    string                `json:"endDate"`
	Products   []quoteProductRequest `json:"products" validate:"required,min=1"`
	RentalType string                `json:"rentalType" validate:"max=64"`
}

func (r quoteRequest) toRequest() (quotes.Request, error) {
	start, err := validators.ParseDateField("startDate", r.StartDate)
	if err != nil {
		return quotes.Request{}, err
	}
	end, err := validators.ParseDateField("endDate", r.EndDate)
	if err != nil {
		return quotes.Request{}, err
	}

	lines := make([]quotes.LineRequest, 0, len(r.Products))
	for i, p := range r.Products {
		slug := strings.TrimSpace(p.ProductID)
		if slug == "" {
			slug = strings.TrimSpace(p.ID)
		}
		if slug == "" {
			return quotes.Request{}, pkgerrors.New(pkgerrors.CodeValidation, "each product needs a productId").
				WithDetails(map[string]any{"index": i})
		}
		lines = append(lines, quotes.LineRequest{Product: slug, Quantity: p.Quantity})
	}

	return quotes.Request{
		Start:      start,
		End:        end,
		Products:   lines,
		RentalType: validators.SanitizeString(r.RentalType, 64),
	}, nil
}

// CreateQuote prices a date range and product selection.
func CreateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := payload.toRequest()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// GetQuote returns a previously issued quote while it is still valid.
func GetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		quote, err := svc.Lookup(r.Context(), chi.URLParam(r, "quoteId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
