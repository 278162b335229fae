package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a statement amount cannot be read as a number.
var ErrInvalidAmount = errors.New("invalid amount")

var plainNumberRegex = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// ParseAmount reads an amount written in the Brazilian convention, dot as
// thousands separator and comma as decimal separator: "1.234,56" is 1234.56.
func ParseAmount(s string) (decimal.Decimal, error) {
	value := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	value = strings.ReplaceAll(value, ",", ".")
	if !plainNumberRegex.MatchString(value) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	value = strings.TrimSuffix(value, ".")
	if strings.HasPrefix(value, ".") {
		value = "0" + value
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return amount, nil
}
