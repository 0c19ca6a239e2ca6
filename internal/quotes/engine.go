package quotes

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

const defaultRentalType = "custom"

// Policy holds the pricing thresholds. The discount and manual-quote
// thresholds are independent.
type Policy struct {
	DiscountMinNights    int
	DiscountPercent      int
	ManualQuoteMinNights int
	TTL                  time.Duration
	Currency             string
	ContactName          string
}

func PolicyFromConfig(cfg config.BookingConfig) Policy {
	return Policy{
		DiscountMinNights:    cfg.DiscountMinNights,
		DiscountPercent:      cfg.DiscountPercent,
		ManualQuoteMinNights: cfg.ManualQuoteMinNights,
		TTL:                  cfg.QuoteTTL,
		Currency:             cfg.Currency,
		ContactName:          cfg.ContactName,
	}
}

// LineRequest asks for Quantity units of a product. Zero quantity means 1.
type LineRequest struct {
	Product  string
	Quantity int
}

type Request struct {
	Start      types.Date
	End        types.Date
	Products   []LineRequest
	RentalType string
}

// Line is the priced breakdown of one product. NightlyTotal is before the
// discount; LineTotal is after it.
type Line struct {
	ProductID       uuid.UUID
	Slug            string
	Name            string
	Category        *string
	NightlyPrice    decimal.Decimal
	SetupFee        decimal.Decimal
	Quantity        int
	Duration        int
	NightlyTotal    decimal.Decimal
	NightlyDiscount decimal.Decimal
	SetupTotal      decimal.Decimal
	LineTotal       decimal.Decimal
}

// Quote is an advisory price. Amounts are unrounded; round at exposure.
type Quote struct {
	ID              string
	Start           types.Date
	End             types.Date
	Duration        int
	RentalType      string
	Mode            enums.PricingMode
	Message         string
	Lines           []Line
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	DiscountApplied bool
	DiscountPercent int
	DiscountMessage string
	ValidUntil      time.Time
}

// Engine prices requests against a catalog snapshot.
type Engine struct {
	policy Policy
	now    func() time.Time
	newID  func() string
}

// NewEngine builds an engine. Nil clock or id source fall back to time.Now
// and uuid.NewString.
func NewEngine(policy Policy, now func() time.Time, newID func() string) *Engine {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Engine{policy: policy, now: now, newID: newID}
}

func (e *Engine) Policy() Policy { return e.policy }

// Compute validates the request and prices it. Only active products in
// catalog are quotable.
func (e *Engine) Compute(req Request, catalog []models.Product) (*Quote, error) {
	if req.Start.IsZero() || req.End.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "startDate and endDate are required")
	}
	if !req.Start.Before(req.End) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidDateRange, "bookings must be at least 1 night; endDate must be after startDate").
			WithDetails(map[string]any{"startDate": req.Start.String(), "endDate": req.End.String()})
	}
	lines, err := mergeLines(req.Products)
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string]models.Product, len(catalog))
	for _, p := range catalog {
		if p.IsActive {
			bySlug[p.Slug] = p
		}
	}
	var missing []string
	for _, line := range lines {
		if _, ok := bySlug[line.Product]; !ok {
			missing = append(missing, line.Product)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownProduct, "one or more products not found or inactive").
			WithDetails(map[string]any{"products": missing})
	}

	now := e.now()
	nights := req.Start.DaysUntil(req.End)
	rentalType := strings.TrimSpace(req.RentalType)
	if rentalType == "" {
		rentalType = defaultRentalType
	}
	quote := &Quote{
		ID:         e.newID(),
		Start:      req.Start,
		End:        req.End,
		Duration:   nights,
		RentalType: rentalType,
		Currency:   e.policy.Currency,
		Subtotal:   decimal.Zero,
		Discount:   decimal.Zero,
		Total:      decimal.Zero,
		Lines:      []Line{},
		ValidUntil: now.Add(e.policy.TTL),
	}

	if nights >= e.policy.ManualQuoteMinNights {
		quote.Mode = enums.PricingModeManualQuote
		quote.Message = fmt.Sprintf("For long-term rentals (%d+ nights), please contact %s for a custom quote.",
			e.policy.ManualQuoteMinNights, e.policy.ContactName)
		return quote, nil
	}

	quote.Mode = enums.PricingModeFixed
	discounted := nights >= e.policy.DiscountMinNights
	rate := decimal.NewFromInt(int64(e.policy.DiscountPercent)).Div(decimal.NewFromInt(100))
	nightsDec := decimal.NewFromInt(int64(nights))

	for _, lr := range lines {
		p := bySlug[lr.Product]
		qty := decimal.NewFromInt(int64(lr.Quantity))
		nightly := p.NightlyPrice.Mul(qty).Mul(nightsDec)
		discount := decimal.Zero
		if discounted {
			discount = nightly.Mul(rate)
		}
		setup := p.SetupFee.Mul(qty)
		line := Line{
			ProductID:       p.ID,
			Slug:            p.Slug,
			Name:            displayName(p),
			Category:        p.Category,
			NightlyPrice:    p.NightlyPrice,
			SetupFee:        p.SetupFee,
			Quantity:        lr.Quantity,
			Duration:        nights,
			NightlyTotal:    nightly,
			NightlyDiscount: discount,
			SetupTotal:      setup,
			LineTotal:       nightly.Sub(discount).Add(setup),
		}
		quote.Lines = append(quote.Lines, line)
		quote.Subtotal = quote.Subtotal.Add(nightly).Add(setup)
		quote.Discount = quote.Discount.Add(discount)
	}
	quote.Total = quote.Subtotal.Sub(quote.Discount)

	if discounted {
		quote.DiscountPercent = e.policy.DiscountPercent
	}
	if quote.Discount.IsPositive() {
		quote.DiscountApplied = true
		quote.DiscountMessage = fmt.Sprintf("Save %d%% on nightly rates for %d+ night rentals!", e.policy.DiscountPercent, nights)
	}
	return quote, nil
}

// mergeLines validates quantities and folds repeated products into one line,
// keeping first-seen order.
func mergeLines(requested []LineRequest) ([]LineRequest, error) {
	if len(requested) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product is required")
	}
	out := make([]LineRequest, 0, len(requested))
	index := make(map[string]int, len(requested))
	for _, r := range requested {
		slug := strings.TrimSpace(r.Product)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		qty := r.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"product": slug, "quantity": r.Quantity})
		}
		if i, ok := index[slug]; ok {
			out[i].Quantity += qty
			continue
		}
		index[slug] = len(out)
		out = append(out, LineRequest{Product: slug, Quantity: qty})
	}
	return out, nil
}

func displayName(p models.Product) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}
