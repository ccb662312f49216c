package hotel

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE & TAX POLICY
// =============================================================================

var hundred = decimal.NewFromInt(100)

// TaxSettings is the process-wide tax configuration. Rate is a percentage.
// It is read when a charge is posted and never applied to past entries.
type TaxSettings struct {
	Enabled bool            `json:"is_enabled"`
	Rate    decimal.Decimal `json:"rate"`
}

// Validate checks the rate lies in [0, 100].
func (s TaxSettings) Validate() error {
	if s.Rate.IsNegative() || s.Rate.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidTaxRate, s.Rate)
	}
	return nil
}

// ComputeTax returns the tax on base: zero when tax is disabled or the rate
// is not positive, otherwise base * rate / 100 rounded to the minor unit.
func ComputeTax(base Money, s TaxSettings) Money {
	if !s.Enabled || !s.Rate.IsPositive() {
		return 0
	}
	return Money(decimal.NewFromInt(int64(base)).Mul(s.Rate).Div(hundred).Round(0).IntPart())
}

// ChargeWithTax splits a posting into its charge and tax components.
func ChargeWithTax(base Money, s TaxSettings) (charge, tax Money) {
	return base, ComputeTax(base, s)
}

// TaxDescription labels the tax line posted next to a charge.
func TaxDescription(s TaxSettings, subject string) string {
	return fmt.Sprintf("Tax (%s%%) - %s", s.Rate.String(), subject)
}
