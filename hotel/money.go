package hotel

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point amount in minor units
// =============================================================================

// Money is an amount in minor currency units (two decimal places).
// All folio arithmetic is integer arithmetic; decimal.Decimal is only used
// at the edges (parsing, percentages, JSON).
type Money int64

const moneyScale = 2

// Minor returns v minor units.
func Minor(v int64) Money { return Money(v) }

// Major returns v whole currency units.
func Major(v int64) Money { return Money(v * 100) }

var (
	minMoney = decimal.NewFromInt(math.MinInt64)
	maxMoney = decimal.NewFromInt(math.MaxInt64)
)

// MoneyFromDecimal converts a major-unit decimal, rounding half away from
// zero to the minor unit. Values outside the int64 minor-unit range are
// rejected with ErrInvalidAmount.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(moneyScale).Round(0)
	if minor.LessThan(minMoney) || minor.GreaterThan(maxMoney) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return Money(minor.IntPart()), nil
}

// ParseMoney parses a major-unit decimal string such as "107.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return MoneyFromDecimal(d)
}

func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -moneyScale) }
func (m Money) String() string           { return m.Decimal().StringFixed(moneyScale) }
func (m Money) Neg() Money               { return -m }
func (m Money) IsZero() bool             { return m == 0 }
func (m Money) IsNegative() bool         { return m < 0 }
func (m Money) IsPositive() bool         { return m > 0 }

func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// MarshalJSON encodes Money as a bare major-unit number (107.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
