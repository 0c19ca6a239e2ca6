package enums

// PricingMode tells clients whether a quote carries computed prices.
type PricingMode string

const (
	PricingModeFixed       PricingMode = "FIXED"
	PricingModeManualQuote PricingMode = "MANUAL_QUOTE"
)

// String implements fmt.Stringer.
func (m PricingMode) String() string {
	return string(m)
}

// IsValid reports whether the mode is recognized.
func (m PricingMode) IsValid() bool {
	return m == PricingModeFixed || m == PricingModeManualQuote
}
