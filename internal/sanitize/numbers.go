package sanitize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxExponent bounds the scientific-notation inputs accepted as numbers.
const maxExponent = 30

// numberCleaner strips currency decoration from amounts.
var numberCleaner = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "(", "", ")", "", "MXN", "", "USD", "")

// parseNumber returns the absolute decimal value of a loosely formatted
// number.
func parseNumber(value string) (decimal.Decimal, bool) {
	cleaned := numberCleaner.Replace(strings.ToUpper(strings.TrimSpace(value)))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	return d.Abs(), true
}

// FormatAmount renders a monetary amount with exactly two decimals.
// Non-numeric input yields "0.00".
//
// EXAMPLES:
//
//	"$1,234.5"  → "1234.50"
//	"-99.999"   → "100.00"
//	"N/A"       → "0.00"
func FormatAmount(value string) string {
	d, ok := parseNumber(value)
	if !ok {
		return "0.00"
	}
	return d.StringFixed(2)
}

// FormatDecimal renders a non-negative quantity with the given number of
// decimal places. Non-numeric input yields zero.
func FormatDecimal(value string, places int32) string {
	if places < 0 {
		places = 0
	}
	d, ok := parseNumber(value)
	if !ok {
		return decimal.Zero.StringFixed(places)
	}
	return d.StringFixed(places)
}

// IsNumeric reports whether value parses as a number once currency
// decoration is removed.
func IsNumeric(value string) bool {
	_, ok := parseNumber(value)
	return ok
}
