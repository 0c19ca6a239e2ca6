package controllers

import (
	"net/http"

	"github.com/angelmondragon/relacksation-backend/api/responses"
	"github.com/angelmondragon/relacksation-backend/internal/availability"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

type availabilityResponse struct {
	StartDate    types.Date                              `json:"startDate"`
	EndDate      types.Date                              `json:"endDate"`
	Availability map[string]map[string]availability.Cell `json:"availability"`
}

// GetAvailability serves the per-date, per-product capacity calendar for the
// inclusive range ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func GetAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		q := r.URL.Query()
		start, end, err := availability.ParseRange(q.Get("start"), q.Get("end"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cal, err := svc.Query(r.Context(), start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, availabilityResponse{
			StartDate:    cal.Start(),
			EndDate:      cal.End(),
			Availability: cal.ByDate(),
		})
	}
}
