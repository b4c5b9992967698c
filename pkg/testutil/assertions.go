package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// AssertDecimal compares decimals by value so 3666.670 equals 3666.67.
func AssertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	if !want.Equal(actual) {
		assert.Fail(t, "decimal mismatch: want "+want.String()+", got "+actual.String(), msgAndArgs...)
	}
}
