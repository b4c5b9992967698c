package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/valueobject"
)

// ScheduleSlot is one period of a reconciled schedule. It is derived on
// demand and never persisted.
type ScheduleSlot struct {
	DueDate     time.Time
	PaymentID   string
	PaymentDate *time.Time
	AmountPaid  decimal.Decimal
	Required    decimal.Decimal
	Actual      decimal.Decimal
	Status      valueobject.SlotStatus
	// Settled is set when Actual covers the full monthly installment. An
	// AdvanceApplied slot fed by a short carry is not settled.
	Settled bool
	// Trailing marks overflow slots emitted after the last scheduled due date.
	Trailing bool
}

// ReportTotals summarizes a schedule's balance.
type ReportTotals struct {
	TotalPayable     decimal.Decimal
	TotalPaid        decimal.Decimal
	TotalPending     decimal.Decimal
	RemainingBalance decimal.Decimal
	PaymentCount     int
	FullyPaid        bool
}

// ScheduleReport is the reconciled view of a schedule against its payments.
type ScheduleReport struct {
	ScheduleID     string
	BorrowerID     string
	Slots          []ScheduleSlot
	UnpaidDueDates []time.Time
	Totals         ReportTotals
}
