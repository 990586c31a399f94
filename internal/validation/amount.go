package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount = errors.New("amount must be a non-negative number")
)

// ParseAmount parses a user-entered monetary amount. The only accepted values
// are finite numbers >= 0; anything else fails locally before any database
// write happens.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, ErrInvalidAmount
	}

	return amount, nil
}
