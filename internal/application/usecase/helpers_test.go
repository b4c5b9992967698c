package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/infrastructure/memory"
	"github.com/kuwago/lending/pkg/testutil"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockCheckoutGateway struct {
	createFunc func(ctx context.Context, req port.CheckoutRequest) (string, error)
	mu         sync.Mutex
	requests   []port.CheckoutRequest
}

func (m *mockCheckoutGateway) CreateCheckout(ctx context.Context, req port.CheckoutRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return "cs_" + req.PaymentID, nil
}

type mockReportCache struct {
	getFunc     func(ctx context.Context, scheduleID string) (model.ScheduleReport, bool, error)
	mu          sync.Mutex
	stored      []model.ScheduleReport
	invalidated []string
}

func (m *mockReportCache) Get(ctx context.Context, scheduleID string) (model.ScheduleReport, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, scheduleID)
	}
	return model.ScheduleReport{}, false, nil
}

func (m *mockReportCache) Set(_ context.Context, report model.ScheduleReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, report)
	return nil
}

func (m *mockReportCache) Invalidate(_ context.Context, scheduleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, scheduleID)
	return nil
}

type mockMetrics struct {
	mu          sync.Mutex
	payments    []string
	outcomes    []bool
	provisioned int
}

func (m *mockMetrics) PaymentRecorded(modality, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, modality+"/"+status)
}

func (m *mockMetrics) CreditScoreUpdated(onTime bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, onTime)
}

func (m *mockMetrics) ScheduleProvisioned() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provisioned++
}

type mockPaymentRepository struct {
	port.PaymentRepository
	listByScheduleFunc func(ctx context.Context, scheduleID string) ([]model.Payment, error)
}

func (m *mockPaymentRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Payment, error) {
	return m.listByScheduleFunc(ctx, scheduleID)
}

// conflictingUnitOfWork fails the first conflicts transactions with a
// version conflict before delegating.
type conflictingUnitOfWork struct {
	port.UnitOfWork
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (u *conflictingUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	u.mu.Lock()
	u.calls++
	conflict := u.calls <= u.conflicts
	u.mu.Unlock()
	if conflict {
		return port.ErrVersionConflict
	}
	return u.UnitOfWork.WithinTransaction(ctx, fn)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

// fakeClock is a settable clock shared by every use case in a fixture.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store   *memory.Store
	clock   *fakeClock
	gateway *mockCheckoutGateway
	metrics *mockMetrics
	cache   *mockReportCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		store:   memory.NewStore(),
		clock:   &fakeClock{now: testutil.ApprovalDate},
		gateway: &mockCheckoutGateway{},
		metrics: &mockMetrics{},
		cache:   &mockReportCache{},
	}
}

func (f *fixture) options() []usecase.Option {
	return []usecase.Option{
		usecase.WithClock(f.clock.Now),
		usecase.WithMetrics(f.metrics),
		usecase.WithReportCache(f.cache),
	}
}

func (f *fixture) repos() port.Repositories { return f.store.Repositories() }

func (f *fixture) submitPayment() *usecase.SubmitPayment {
	return usecase.NewSubmitPayment(f.store, f.gateway, f.options()...)
}

// approvedLoan files and approves a 10,000 at 10% over 3 months loan for
// borrowerID on ApprovalDate and returns the schedule.
func (f *fixture) approvedLoan(t *testing.T, borrowerID string) dto.ScheduleResponse {
	t.Helper()
	ctx := context.Background()
	f.clock.Set(testutil.ApprovalDate)

	req, err := usecase.NewSubmitLoanRequest(f.store, f.options()...).Execute(ctx, dto.SubmitLoanRequestRequest{
		BorrowerID: borrowerID,
		LoanType:   "Business",
		Amount:     testutil.Dec("10000"),
		Purpose:    "inventory",
	})
	require.NoError(t, err)

	schedule, err := usecase.NewApproveLoan(f.store, f.options()...).Execute(ctx, dto.ApproveLoanRequest{
		LoanRequestID: req.ID,
		LenderID:      testutil.TestLenderID,
		Principal:     testutil.Dec("10000"),
		InterestRate:  testutil.Dec("10"),
		TermMonths:    3,
		Modality:      "CASH",
	})
	require.NoError(t, err)
	return schedule
}

func (f *fixture) pay(t *testing.T, schedule dto.ScheduleResponse, amount string, modality string, at time.Time) dto.PaymentReceipt {
	t.Helper()
	f.clock.Set(at)
	receipt, err := f.submitPayment().Execute(context.Background(), dto.SubmitPaymentRequest{
		ScheduleID: schedule.ID,
		BorrowerID: schedule.BorrowerID,
		Amount:     decimal.RequireFromString(amount),
		PaidAt:     at,
		Modality:   modality,
	})
	require.NoError(t, err)
	return receipt
}

func (f *fixture) score(t *testing.T, borrowerID string) model.CreditScore {
	t.Helper()
	cs, err := f.repos().CreditScores.FindByBorrowerID(context.Background(), borrowerID)
	require.NoError(t, err)
	return cs
}
