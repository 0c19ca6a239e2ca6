package quotes

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

type LineDTO struct {
	ProductID       uuid.UUID `json:"productId"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Category        *string   `json:"category,omitempty"`
	NightlyPrice    float64   `json:"nightlyPrice"`
	SetupFee        float64   `json:"setupFee"`
	Quantity        int       `json:"quantity"`
	Duration        int       `json:"duration"`
	NightlyTotal    float64   `json:"nightlyTotal"`
	NightlyDiscount float64   `json:"nightlyDiscount"`
	SetupTotal      float64   `json:"setupTotal"`
	LineTotal       float64   `json:"lineTotal"`
}

type PricingDTO struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

type DiscountInfoDTO struct {
	Applied    bool    `json:"applied"`
	Percentage int     `json:"percentage"`
	Savings    float64 `json:"savings"`
	Message    *string `json:"message"`
}

// QuoteDTO is the wire shape of a quote. Amounts are rounded to cents here
// and nowhere earlier.
type QuoteDTO struct {
	QuoteID      string            `json:"quoteId"`
	StartDate    types.Date        `json:"startDate"`
	EndDate      types.Date        `json:"endDate"`
	Duration     int               `json:"duration"`
	RentalType   string            `json:"rentalType"`
	PricingMode  enums.PricingMode `json:"pricingMode"`
	Message      string            `json:"message,omitempty"`
	Products     []LineDTO         `json:"products"`
	Pricing      PricingDTO        `json:"pricing"`
	DiscountInfo *DiscountInfoDTO  `json:"discountInfo,omitempty"`
	ValidUntil   time.Time         `json:"validUntil"`
}

func ToDTO(q *Quote) QuoteDTO {
	dto := QuoteDTO{
		QuoteID:     q.ID,
		StartDate:   q.Start,
		EndDate:     q.End,
		Duration:    q.Duration,
		RentalType:  q.RentalType,
		PricingMode: q.Mode,
		Message:     q.Message,
		Products:    make([]LineDTO, 0, len(q.Lines)),
		Pricing: PricingDTO{
			Subtotal: types.MoneyAmount(q.Subtotal),
			Discount: types.MoneyAmount(q.Discount),
			Total:    types.MoneyAmount(q.Total),
			Currency: q.Currency,
		},
		ValidUntil: q.ValidUntil.UTC(),
	}
	for _, l := range q.Lines {
		dto.Products = append(dto.Products, LineDTO{
			ProductID:       l.ProductID,
			Slug:            l.Slug,
			Name:            l.Name,
			Category:        l.Category,
			NightlyPrice:    types.MoneyAmount(l.NightlyPrice),
			SetupFee:        types.MoneyAmount(l.SetupFee),
			Quantity:        l.Quantity,
			Duration:        l.Duration,
			NightlyTotal:    types.MoneyAmount(l.NightlyTotal),
			NightlyDiscount: types.MoneyAmount(l.NightlyDiscount),
			SetupTotal:      types.MoneyAmount(l.SetupTotal),
			LineTotal:       types.MoneyAmount(l.LineTotal),
		})
	}
	if q.Mode == enums.PricingModeFixed {
		info := &DiscountInfoDTO{
			Applied:    q.DiscountApplied,
			Percentage: q.DiscountPercent,
			Savings:    types.MoneyAmount(q.Discount),
		}
		if q.DiscountMessage != "" {
			msg := q.DiscountMessage
			info.Message = &msg
		}
		dto.DiscountInfo = info
	}
	return dto
}
