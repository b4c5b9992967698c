package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

const scheduleColumns = `
	id, agreement_id, borrower_id, lender_id,
	total_payable, monthly_required, due_dates, created_at`

// ScheduleRepo implements port.PaymentScheduleRepository. Due dates are
// stored as a DATE[] so a schedule is always read back whole.
type ScheduleRepo struct {
	q pkgpostgres.Querier
}

func NewScheduleRepo(q pkgpostgres.Querier) *ScheduleRepo {
	return &ScheduleRepo{q: q}
}

func (r *ScheduleRepo) Create(ctx context.Context, s model.PaymentSchedule) error {
	query := `
		INSERT INTO payment_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.Exec(ctx, query,
		s.ID(), s.AgreementID(), s.BorrowerID(), s.LenderID(),
		s.TotalPayable(), s.MonthlyRequired(), s.DueDates(), s.CreatedAt().UTC(),
	)
	if err != nil {
		return mapInsertError(err, "schedule for agreement "+s.AgreementID())
	}
	return nil
}

func (r *ScheduleRepo) FindByID(ctx context.Context, id string) (model.PaymentSchedule, error) {
	return r.findOne(ctx, `SELECT `+scheduleColumns+` FROM payment_schedules WHERE id = $1`, "payment schedule", id)
}

// FindByIDForUpdate locks the schedule row; payment intake serializes on it.
func (r *ScheduleRepo) FindByIDForUpdate(ctx context.Context, id string) (model.PaymentSchedule, error) {
	return r.findOne(ctx, `SELECT `+scheduleColumns+` FROM payment_schedules WHERE id = $1 FOR UPDATE`, "payment schedule", id)
}

func (r *ScheduleRepo) FindByAgreementID(ctx context.Context, agreementID string) (model.PaymentSchedule, error) {
	return r.findOne(ctx, `SELECT `+scheduleColumns+` FROM payment_schedules WHERE agreement_id = $1`, "schedule for agreement", agreementID)
}

func (r *ScheduleRepo) findOne(ctx context.Context, query, what, key string) (model.PaymentSchedule, error) {
	var (
		id, agreementID, borrowerID, lenderID string
		total, monthly                        decimal.Decimal
		dueDates                              []time.Time
		createdAt                             time.Time
	)
	err := r.q.QueryRow(ctx, query, key).Scan(
		&id, &agreementID, &borrowerID, &lenderID,
		&total, &monthly, &dueDates, &createdAt,
	)
	if err != nil {
		return model.PaymentSchedule{}, mapFindError(err, what, key)
	}
	for i := range dueDates {
		dueDates[i] = model.CalendarDate(dueDates[i])
	}
	return model.ReconstructPaymentSchedule(
		id, agreementID, borrowerID, lenderID, total, monthly, dueDates, createdAt.UTC(),
	), nil
}

var _ port.PaymentScheduleRepository = (*ScheduleRepo)(nil)
