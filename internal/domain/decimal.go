package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultScale is the number of fractional digits prices and quantities are
// parsed with when a component does not carry its own configured scale
// (§4.A: "a fixed-point number with a configured scale S (default 8)").
const DefaultScale = 8

// ParseDecimal parses a user-supplied decimal string per §4.A. It fails
// with a BadRequest domain error on: empty input, non-numeric input, more
// than `scale` fractional digits, or a non-positive value when
// requirePositive is set.
func ParseDecimal(raw string, scale int32, requirePositive bool) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Decimal{}, BadRequest("empty decimal")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, BadRequest("invalid decimal: " + raw)
	}
	if -d.Exponent() > scale {
		return decimal.Decimal{}, BadRequest("too many fractional digits, max is " + strconv.Itoa(int(scale)))
	}
	if requirePositive && !d.IsPositive() {
		return decimal.Decimal{}, BadRequest("value must be positive: " + raw)
	}
	return d, nil
}

// FormatDecimal renders d as the canonical wire string from §6: no
// trailing zeros beyond the value's own precision, no leading plus, no
// scientific notation.
func FormatDecimal(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
