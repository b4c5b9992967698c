package service_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/service"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/testutil"
)

var (
	due1 = testutil.Date(2025, time.February, 15)
	due2 = testutil.Date(2025, time.March, 15)
	due3 = testutil.Date(2025, time.April, 15)
)

func threeMonthSchedule(t *testing.T) model.PaymentSchedule {
	t.Helper()
	return model.ReconstructPaymentSchedule("sched-1", "agr-1", testutil.TestBorrowerID, testutil.TestLenderID,
		testutil.Dec("11000"), testutil.Dec("3666.67"), []time.Time{due1, due2, due3}, testutil.ApprovalDate)
}

func settled(id, amount string, at time.Time) model.Payment {
	return paymentWithStatus(id, amount, at, valueobject.PaymentStatusCompleted)
}

func paymentWithStatus(id, amount string, at time.Time, status valueobject.PaymentStatus) model.Payment {
	return model.ReconstructPayment(id, "sched-1", testutil.TestBorrowerID, testutil.Dec(amount), at, "",
		valueobject.ModalityCash, status, "", 1, at, at)
}

func statuses(report model.ScheduleReport) []valueobject.SlotStatus {
	out := make([]valueobject.SlotStatus, len(report.Slots))
	for i, s := range report.Slots {
		out[i] = s.Status
	}
	return out
}

func TestBuildScheduleReport_NoPayments(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), nil)

	assert.Equal(t, []valueobject.SlotStatus{valueobject.SlotUnpaid, valueobject.SlotUnpaid, valueobject.SlotUnpaid}, statuses(report))
	assert.Equal(t, []time.Time{due1, due2, due3}, report.UnpaidDueDates)
	for _, slot := range report.Slots {
		assert.Nil(t, slot.PaymentDate)
		testutil.AssertDecimal(t, "3666.67", slot.Required)
		testutil.AssertDecimal(t, "0", slot.Actual)
	}
	testutil.AssertDecimal(t, "11000", report.Totals.RemainingBalance)
	assert.False(t, report.Totals.FullyPaid)
}

func TestBuildScheduleReport_DoublePaymentOnFirstDueDate(t *testing.T) {
	onDue1 := due1.Add(10 * time.Hour)
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "7333.34", onDue1),
	})

	require.Len(t, report.Slots, 3)
	assert.Equal(t, []valueobject.SlotStatus{valueobject.SlotPaid, valueobject.SlotAdvanceApplied, valueobject.SlotUnpaid}, statuses(report))

	first := report.Slots[0]
	require.NotNil(t, first.PaymentDate)
	assert.Equal(t, onDue1, *first.PaymentDate)
	testutil.AssertDecimal(t, "7333.34", first.AmountPaid)
	testutil.AssertDecimal(t, "3666.67", first.Actual)

	second := report.Slots[1]
	assert.Nil(t, second.PaymentDate)
	testutil.AssertDecimal(t, "0", second.Required)
	testutil.AssertDecimal(t, "3666.67", second.Actual)

	assert.Equal(t, []time.Time{due3}, report.UnpaidDueDates)
	testutil.AssertDecimal(t, "3666.66", report.Totals.RemainingBalance)

	next, ok := service.NextUnmetDueDate(report)
	require.True(t, ok)
	assert.Equal(t, due3, next)
}

func TestBuildScheduleReport_PaymentBeforeDueIsAdvance(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "3666.67", due1.AddDate(0, 0, -3)),
	})

	assert.Equal(t, valueobject.SlotAdvance, report.Slots[0].Status)
	testutil.AssertDecimal(t, "3666.67", report.Slots[0].Actual)
	assert.Equal(t, valueobject.SlotUnpaid, report.Slots[1].Status)
}

func TestBuildScheduleReport_PartialPayment(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "1000", due1.AddDate(0, 0, -10)),
	})

	slot := report.Slots[0]
	assert.Equal(t, valueobject.SlotPartial, slot.Status)
	testutil.AssertDecimal(t, "1000", slot.Actual)
	testutil.AssertDecimal(t, "3666.67", slot.Required)
	assert.False(t, slot.Settled)

	// no carry reaches the second period
	assert.Equal(t, valueobject.SlotUnpaid, report.Slots[1].Status)
	testutil.AssertDecimal(t, "3666.67", report.Slots[1].Required)

	next, ok := service.NextUnmetDueDate(report)
	require.True(t, ok)
	assert.Equal(t, due1, next)
}

func TestBuildScheduleReport_LatePaymentDoesNotBackfill(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "3666.67", due1.AddDate(0, 0, 5)),
	})

	assert.Equal(t, []valueobject.SlotStatus{valueobject.SlotUnpaid, valueobject.SlotAdvance, valueobject.SlotUnpaid}, statuses(report))
	assert.Equal(t, []time.Time{due1, due3}, report.UnpaidDueDates)
}

func TestBuildScheduleReport_CarryCoversPartOfNextPeriod(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "5000", due1),
		settled("p2", "1000", due2.AddDate(0, 0, -1)),
	})

	// 5000 pays period 1 and carries 1333.33; p2 brings it to 2333.33 < 3666.67
	testutil.AssertDecimal(t, "2333.34", report.Slots[1].Required)
	assert.Equal(t, valueobject.SlotPartial, report.Slots[1].Status)
	testutil.AssertDecimal(t, "2333.33", report.Slots[1].Actual)
	testutil.AssertDecimal(t, "1000", report.Slots[1].AmountPaid)
}

func TestBuildScheduleReport_ShortCarryLeavesPeriodUnmet(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "5000", due1.AddDate(0, 0, -1)),
	})

	// period 2 only receives the 1333.33 carried from p1
	slot := report.Slots[1]
	assert.Equal(t, valueobject.SlotAdvanceApplied, slot.Status)
	testutil.AssertDecimal(t, "1333.33", slot.Actual)
	assert.False(t, slot.Settled)
	assert.True(t, report.Slots[0].Settled)

	next, ok := service.NextUnmetDueDate(report)
	require.True(t, ok)
	assert.Equal(t, due2, next)

	assert.True(t, service.IsOnTime(report, due2))
	assert.False(t, service.IsOnTime(report, due2.AddDate(0, 0, 10)))
}

func TestBuildScheduleReport_FullCarrySettlesNextPeriod(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "7333.34", due1.AddDate(0, 0, -1)),
	})

	assert.Equal(t, valueobject.SlotAdvanceApplied, report.Slots[1].Status)
	assert.True(t, report.Slots[1].Settled)

	next, ok := service.NextUnmetDueDate(report)
	require.True(t, ok)
	assert.Equal(t, due3, next)
}

func TestBuildScheduleReport_TrailingPayments(t *testing.T) {
	after := due3.AddDate(0, 0, 2)
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("p1", "200", after),
		settled("p2", "300", after.Add(time.Hour)),
	})

	require.Len(t, report.Slots, 5)
	for _, slot := range report.Slots[3:] {
		assert.True(t, slot.Trailing)
		assert.Equal(t, valueobject.SlotAdvance, slot.Status)
		assert.Equal(t, testutil.Date(2025, time.May, 15), slot.DueDate)
	}
	assert.Equal(t, "p1", report.Slots[3].PaymentID)
	assert.Equal(t, "p2", report.Slots[4].PaymentID)
	testutil.AssertDecimal(t, "300", report.Slots[4].Actual)

	_, ok := service.NextUnmetDueDate(report)
	assert.True(t, ok, "trailing slots never satisfy scheduled periods")
}

func TestBuildScheduleReport_UnabsorbedCarryBecomesTrailingSlot(t *testing.T) {
	schedule := model.ReconstructPaymentSchedule("sched-2", "agr-2", testutil.TestBorrowerID, testutil.TestLenderID,
		testutil.Dec("100"), testutil.Dec("33.33"), []time.Time{due1, due2, due3}, testutil.ApprovalDate)

	report := service.BuildScheduleReport(schedule, []model.Payment{settled("p1", "100", due1)})

	require.Len(t, report.Slots, 4)
	carry := report.Slots[3]
	assert.True(t, carry.Trailing)
	assert.Empty(t, carry.PaymentID)
	testutil.AssertDecimal(t, "0.01", carry.Actual)
	assert.True(t, report.Totals.FullyPaid)

	_, ok := service.NextUnmetDueDate(report)
	assert.False(t, ok)
}

func TestBuildScheduleReport_IgnoresCancelledAndTracksPending(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		paymentWithStatus("c1", "3666.67", due1.AddDate(0, 0, -5), valueobject.PaymentStatusCancelled),
		paymentWithStatus("e1", "3666.67", due1.AddDate(0, 0, -1), valueobject.PaymentStatusPending),
	})

	assert.Equal(t, "e1", report.Slots[0].PaymentID)
	assert.Equal(t, 1, report.Totals.PaymentCount)
	testutil.AssertDecimal(t, "0", report.Totals.TotalPaid)
	testutil.AssertDecimal(t, "3666.67", report.Totals.TotalPending)
	testutil.AssertDecimal(t, "11000", report.Totals.RemainingBalance)
}

func TestBuildScheduleReport_ConsumesInTimestampOrder(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{
		settled("late", "3666.67", due2.AddDate(0, 0, -1)),
		settled("early", "3666.67", due1.AddDate(0, 0, -1)),
	})

	assert.Equal(t, "early", report.Slots[0].PaymentID)
	assert.Equal(t, "late", report.Slots[1].PaymentID)
}

func TestSortPayments_TieBreaks(t *testing.T) {
	at := due1
	b := model.ReconstructPayment("b", "s", "u", testutil.Dec("1"), at, "", valueobject.ModalityCash,
		valueobject.PaymentStatusCompleted, "", 1, at, at)
	a := model.ReconstructPayment("a", "s", "u", testutil.Dec("1"), at, "", valueobject.ModalityCash,
		valueobject.PaymentStatusCompleted, "", 1, at, at)
	earlierCreated := model.ReconstructPayment("z", "s", "u", testutil.Dec("1"), at, "", valueobject.ModalityCash,
		valueobject.PaymentStatusCompleted, "", 1, at.Add(-time.Minute), at)

	sorted := service.SortPayments([]model.Payment{b, a, earlierCreated})

	assert.Equal(t, []string{"z", "a", "b"}, []string{sorted[0].ID(), sorted[1].ID(), sorted[2].ID()})
}

func TestIsOnTime(t *testing.T) {
	report := service.BuildScheduleReport(threeMonthSchedule(t), nil)

	assert.True(t, service.IsOnTime(report, due1.Add(23*time.Hour)), "same calendar day is on time")
	assert.False(t, service.IsOnTime(report, due1.AddDate(0, 0, 1)))

	full := service.BuildScheduleReport(threeMonthSchedule(t), []model.Payment{settled("p1", "11000", due1)})
	assert.True(t, service.IsOnTime(full, due3.AddDate(1, 0, 0)))
}

func TestBuildScheduleReport_ConservationAndNoDoubleCount(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	schedule := threeMonthSchedule(t)

	for run := 0; run < 300; run++ {
		var payments []model.Payment
		want := decimal.Zero
		n := rng.Intn(8)
		for i := 0; i < n; i++ {
			amount := decimal.New(rng.Int63n(800_000)+1, -2)
			at := testutil.ApprovalDate.Add(time.Duration(rng.Intn(130*24)) * time.Hour)
			status := valueobject.PaymentStatusCompleted
			switch rng.Intn(5) {
			case 0:
				status = valueobject.PaymentStatusCancelled
			case 1:
				status = valueobject.PaymentStatusPending
			}
			p := model.ReconstructPayment(fmt.Sprintf("p%d", i), schedule.ID(), testutil.TestBorrowerID, amount, at, "",
				valueobject.ModalityCash, status, "", 1, at, at)
			payments = append(payments, p)
			if status.CountsTowardBalance() {
				want = want.Add(amount)
			}
		}

		report := service.BuildScheduleReport(schedule, payments)

		got := decimal.Zero
		seen := map[string]int{}
		for _, slot := range report.Slots {
			got = got.Add(slot.Actual)
			if slot.PaymentID != "" {
				seen[slot.PaymentID]++
			}
		}
		require.True(t, want.Equal(got), "run %d: want %s credited, got %s", run, want, got)

		for _, p := range payments {
			if p.Status().CountsTowardBalance() {
				require.Equal(t, 1, seen[p.ID()], "run %d: payment %s", run, p.ID())
			} else {
				require.Zero(t, seen[p.ID()])
			}
		}
	}
}
