package types

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits exposed for currency amounts.
const MoneyScale = 2

// MoneyAmount rounds an accumulated decimal to cents for external exposure.
func MoneyAmount(d decimal.Decimal) float64 {
	return d.Round(MoneyScale).InexactFloat64()
}
