package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits carried by prices and
// cash balances at every boundary.
const MoneyPlaces = 2

// ParseMoney parses a decimal amount such as "1250.50". It rejects values
// with more than 2 decimal places instead of rounding them.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid monetary value %q", s)
	}
	if err := CheckMoneyPrecision(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckMoneyPrecision returns an error if d has a non-zero digit beyond
// the second decimal place.
func CheckMoneyPrecision(d decimal.Decimal) error {
	if !d.Equal(d.Round(MoneyPlaces)) {
		return fmt.Errorf("monetary values must have at most 2 decimal places")
	}
	return nil
}

// RoundMoney rounds half away from zero to 2 decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatMoney renders d with exactly 2 fractional digits, e.g. "102.00".
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}
