package testutil

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fixed identifiers for deterministic tests.
const (
	TestBorrowerID  = "00000000-0000-0000-0000-000000000001"
	TestBorrowerID2 = "00000000-0000-0000-0000-000000000002"
	TestLenderID    = "00000000-0000-0000-0000-000000000010"
)

// ApprovalDate is the reference approval instant used across schedule tests.
var ApprovalDate = time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
