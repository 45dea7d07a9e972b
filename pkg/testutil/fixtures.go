package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
)

// MustDecimal parses s into a decimal or fails the test.
func MustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// Rupees is shorthand for a whole-rupee decimal amount in tests.
func Rupees(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
