package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/money"
)

// foldState is threaded through the due-date scan. Each step returns a new
// state; queue is only ever resliced, never written.
type foldState struct {
	advance decimal.Decimal
	queue   []model.Payment
}

// BuildScheduleReport reconciles payments against a schedule. Cancelled
// payments are ignored; the rest are consumed FIFO in timestamp order, each
// exactly once. Payments left over after the last due date, and any carry
// the schedule could not absorb, become trailing Advance slots one month past
// the last due date. Comparisons between payment and due dates are made on
// UTC calendar days.
func BuildScheduleReport(schedule model.PaymentSchedule, payments []model.Payment) model.ScheduleReport {
	active := SortPayments(excludeCancelled(payments))
	monthly := schedule.MonthlyRequired()

	report := model.ScheduleReport{
		ScheduleID: schedule.ID(),
		BorrowerID: schedule.BorrowerID(),
	}

	state := foldState{advance: decimal.Zero, queue: active}
	for _, due := range schedule.DueDates() {
		var slot model.ScheduleSlot
		slot, state = reconcileDueDate(state, due, monthly)
		if slot.Status == valueobject.SlotUnpaid {
			report.UnpaidDueDates = append(report.UnpaidDueDates, due)
		}
		report.Slots = append(report.Slots, slot)
	}
	report.Slots = append(report.Slots, trailingSlots(state, model.AddMonths(schedule.LastDueDate(), 1))...)
	report.Totals = computeTotals(schedule, active)
	return report
}

func reconcileDueDate(state foldState, due time.Time, monthly decimal.Decimal) (model.ScheduleSlot, foldState) {
	required := monthly.Sub(money.Min(state.advance, monthly))
	slot := model.ScheduleSlot{
		DueDate:    due,
		AmountPaid: decimal.Zero,
		Required:   required,
	}

	if len(state.queue) == 0 || model.CalendarDate(state.queue[0].PaidAt()).After(due) {
		if state.advance.IsPositive() {
			applied := money.Min(state.advance, monthly)
			slot.Actual = applied
			slot.Status = valueobject.SlotAdvanceApplied
			slot.Settled = applied.GreaterThanOrEqual(monthly)
			return slot, foldState{advance: state.advance.Sub(applied), queue: state.queue}
		}
		slot.Actual = decimal.Zero
		slot.Status = valueobject.SlotUnpaid
		return slot, state
	}

	head := state.queue[0]
	paidAt := head.PaidAt()
	slot.PaymentID = head.ID()
	slot.PaymentDate = &paidAt
	slot.AmountPaid = head.Amount()

	next := foldState{queue: state.queue[1:]}
	available := head.Amount().Add(state.advance)
	if available.GreaterThanOrEqual(monthly) {
		slot.Actual = monthly
		slot.Settled = true
		next.advance = available.Sub(monthly)
		if model.CalendarDate(paidAt).Before(due) {
			slot.Status = valueobject.SlotAdvance
		} else {
			slot.Status = valueobject.SlotPaid
		}
		return slot, next
	}

	slot.Actual = available
	slot.Status = valueobject.SlotPartial
	next.advance = decimal.Zero
	return slot, next
}

func trailingSlots(state foldState, due time.Time) []model.ScheduleSlot {
	var slots []model.ScheduleSlot
	if state.advance.IsPositive() {
		slots = append(slots, model.ScheduleSlot{
			DueDate:    due,
			AmountPaid: decimal.Zero,
			Required:   decimal.Zero,
			Actual:     state.advance,
			Status:     valueobject.SlotAdvance,
			Trailing:   true,
		})
	}
	for _, p := range state.queue {
		paidAt := p.PaidAt()
		slots = append(slots, model.ScheduleSlot{
			DueDate:     due,
			PaymentID:   p.ID(),
			PaymentDate: &paidAt,
			AmountPaid:  p.Amount(),
			Required:    decimal.Zero,
			Actual:      p.Amount(),
			Status:      valueobject.SlotAdvance,
			Trailing:    true,
		})
	}
	return slots
}

func computeTotals(schedule model.PaymentSchedule, payments []model.Payment) model.ReportTotals {
	paid, pending := decimal.Zero, decimal.Zero
	for _, p := range payments {
		if p.Status().IsSettled() {
			paid = paid.Add(p.Amount())
		} else {
			pending = pending.Add(p.Amount())
		}
	}
	remaining := schedule.TotalPayable().Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return model.ReportTotals{
		TotalPayable:     schedule.TotalPayable(),
		TotalPaid:        paid,
		TotalPending:     pending,
		RemainingBalance: remaining,
		PaymentCount:     len(payments),
		FullyPaid:        remaining.IsZero(),
	}
}

// NextUnmetDueDate returns the due date of the first scheduled slot whose
// installment is not fully covered. ok is false when every scheduled slot is
// settled.
func NextUnmetDueDate(report model.ScheduleReport) (time.Time, bool) {
	for _, slot := range report.Slots {
		if slot.Trailing {
			continue
		}
		if !slot.Settled {
			return slot.DueDate, true
		}
	}
	return time.Time{}, false
}

// IsOnTime reports whether a payment made at `at` meets the next unmet due
// date of report. With nothing outstanding every payment is on time.
func IsOnTime(report model.ScheduleReport, at time.Time) bool {
	next, ok := NextUnmetDueDate(report)
	if !ok {
		return true
	}
	return !model.CalendarDate(at).After(next)
}

// SettledOnly keeps COMPLETED payments.
func SettledOnly(payments []model.Payment) []model.Payment {
	out := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Status().IsSettled() {
			out = append(out, p)
		}
	}
	return out
}

func excludeCancelled(payments []model.Payment) []model.Payment {
	out := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Status().CountsTowardBalance() {
			out = append(out, p)
		}
	}
	return out
}

// SortPayments returns a copy ordered by payment timestamp, then creation
// time, then id.
func SortPayments(payments []model.Payment) []model.Payment {
	out := append([]model.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PaidAt().Equal(b.PaidAt()) {
			return a.PaidAt().Before(b.PaidAt())
		}
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		return a.ID() < b.ID()
	})
	return out
}
