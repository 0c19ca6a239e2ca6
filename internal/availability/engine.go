package availability

import (
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// Cell is the capacity picture of one product on one date.
type Cell struct {
	Used      int  `json:"used"`
	Capacity  int  `json:"capacity"`
	Available int  `json:"available"`
	Blocked   bool `json:"blocked"`
}

// Snapshot is the catalog and ledger state the engine reads. Bookings may
// include canceled rows; they are ignored.
type Snapshot struct {
	Products []models.Product
	Bookings []models.Booking
	Blocks   []models.BlockedDate
}

// Calendar maps every date of an inclusive range to per-product cells.
type Calendar struct {
	start types.Date
	end   types.Date
	days  []types.Date
	slugs []string
	cells map[string][]Cell
}

// Compute builds the availability calendar for start..end inclusive. A
// booking [s, e) occupies date d when s <= d < e. A block forces available
// to zero for the products it covers; otherwise available is capacity minus
// used and may be negative after a capacity reduction.
func Compute(start, end types.Date, snap Snapshot) (*Calendar, error) {
	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "start and end dates are required")
	}
	if start.After(end) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "start date must not be after end date").
			WithDetails(map[string]any{"start": start.String(), "end": end.String()})
	}

	days := types.DatesBetween(start, end)
	cal := &Calendar{
		start: start,
		end:   end,
		days:  days,
		slugs: make([]string, 0, len(snap.Products)),
		cells: make(map[string][]Cell, len(snap.Products)),
	}
	for _, p := range snap.Products {
		if _, dup := cal.cells[p.Slug]; dup {
			continue
		}
		row := make([]Cell, len(days))
		for i := range row {
			row[i] = Cell{Capacity: p.Capacity}
		}
		cal.slugs = append(cal.slugs, p.Slug)
		cal.cells[p.Slug] = row
	}

	limit := end.AddDays(1)
	for _, b := range snap.Bookings {
		if !b.Status.ConsumesCapacity() {
			continue
		}
		from, to := b.StartDate, b.EndDate
		if from.Before(start) {
			from = start
		}
		if to.After(limit) {
			to = limit
		}
		if !from.Before(to) {
			continue
		}
		lo, hi := start.DaysUntil(from), start.DaysUntil(to)
		counted := make(map[string]struct{}, len(b.Products))
		for _, slug := range b.Products {
			if _, ok := counted[slug]; ok {
				continue
			}
			counted[slug] = struct{}{}
			row, ok := cal.cells[slug]
			if !ok {
				continue
			}
			for i := lo; i < hi; i++ {
				row[i].Used++
			}
		}
	}

	for _, block := range snap.Blocks {
		if !block.IsActive || block.Date.Before(start) || block.Date.After(end) {
			continue
		}
		idx := start.DaysUntil(block.Date)
		for slug, row := range cal.cells {
			if block.Covers(slug) {
				row[idx].Blocked = true
			}
		}
	}

	for _, row := range cal.cells {
		for i := range row {
			if row[i].Blocked {
				row[i].Available = 0
				continue
			}
			row[i].Available = row[i].Capacity - row[i].Used
		}
	}
	return cal, nil
}

func (c *Calendar) Start() types.Date { return c.start }
func (c *Calendar) End() types.Date   { return c.end }

// Days lists the dates of the calendar in chronological order.
func (c *Calendar) Days() []types.Date {
	return append([]types.Date(nil), c.days...)
}

// Products lists the product slugs in catalog order.
func (c *Calendar) Products() []string {
	return append([]string(nil), c.slugs...)
}

// Cell returns the cell for the product on the date.
func (c *Calendar) Cell(date types.Date, slug string) (Cell, bool) {
	row, ok := c.cells[slug]
	if !ok || date.Before(c.start) || date.After(c.end) {
		return Cell{}, false
	}
	return row[c.start.DaysUntil(date)], true
}

// ByDate renders the calendar as date -> product -> cell.
func (c *Calendar) ByDate() map[string]map[string]Cell {
	out := make(map[string]map[string]Cell, len(c.days))
	for i, d := range c.days {
		day := make(map[string]Cell, len(c.slugs))
		for _, slug := range c.slugs {
			day[slug] = c.cells[slug][i]
		}
		out[d.String()] = day
	}
	return out
}
