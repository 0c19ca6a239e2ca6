package admission

import (
	"strings"

	"github.com/angelmondragon/relacksation-backend/internal/availability"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// DefaultMaxNights caps a booking when no limit is configured.
const DefaultMaxNights = 366

// Request is a proposed booking of every product in Products for the nights
// [Start, End). MaxNights <= 0 means DefaultMaxNights.
type Request struct {
	Start     types.Date
	End       types.Date
	Products  []string
	MaxNights int
}

// NormalizeProducts trims and de-duplicates product slugs, keeping request
// order. Blank slugs are rejected.
func NormalizeProducts(products []string) ([]string, error) {
	out := make([]string, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for i, raw := range products {
		slug := strings.TrimSpace(raw)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required").
				WithDetails(map[string]any{"field": "products", "index": i})
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product is required")
	}
	return out, nil
}

// ValidateRange rejects missing and inverted ranges, zero-night ranges and
// ranges longer than maxNights.
func ValidateRange(start, end types.Date, maxNights int) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeInvalidDateRange, "startDate and endDate are required")
	}
	if !start.Before(end) {
		return pkgerrors.New(pkgerrors.CodeInvalidDateRange, "bookings must be at least 1 night; endDate must be after startDate").
			WithDetails(map[string]any{"startDate": start.String(), "endDate": end.String()})
	}
	if maxNights <= 0 {
		maxNights = DefaultMaxNights
	}
	if start.AddDays(maxNights).Before(end) {
		return pkgerrors.New(pkgerrors.CodeInvalidDateRange, "booking is longer than the allowed number of nights").
			WithDetails(map[string]any{"startDate": start.String(), "endDate": end.String(), "maxNights": maxNights})
	}
	return nil
}

// Evaluate runs the admission check against a snapshot. It walks the nights
// in chronological order and the products in request order and reports the
// first night where the product is blocked or already at capacity. The
// snapshot is not modified.
func Evaluate(req Request, snap availability.Snapshot) error {
	if err := ValidateRange(req.Start, req.End, req.MaxNights); err != nil {
		return err
	}
	products, err := NormalizeProducts(req.Products)
	if err != nil {
		return err
	}
	if missing := missingProducts(products, snap.Products); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeUnknownProduct, "one or more products not found or inactive").
			WithDetails(map[string]any{"products": missing})
	}

	lastNight := req.End.AddDays(-1)
	cal, err := availability.Compute(req.Start, lastNight, snap)
	if err != nil {
		return err
	}
	for _, night := range cal.Days() {
		for _, slug := range products {
			cell, _ := cal.Cell(night, slug)
			if cell.Blocked {
				return capacityExceeded(slug, night, cell, true)
			}
			if cell.Used >= cell.Capacity {
				return capacityExceeded(slug, night, cell, false)
			}
		}
	}
	return nil
}

func missingProducts(requested []string, catalog []models.Product) []string {
	active := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		if p.IsActive {
			active[p.Slug] = struct{}{}
		}
	}
	var missing []string
	for _, slug := range requested {
		if _, ok := active[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	return missing
}

func capacityExceeded(slug string, night types.Date, cell availability.Cell, blocked bool) error {
	details := map[string]any{
		"product":  slug,
		"date":     night.String(),
		"used":     cell.Used,
		"capacity": cell.Capacity,
	}
	message := "product is fully booked on the requested date"
	if blocked {
		details["blocked"] = true
		message = "product is unavailable on the requested date"
	}
	return pkgerrors.New(pkgerrors.CodeCapacityExceeded, message).WithDetails(details)
}
