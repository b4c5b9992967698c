package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/valueobject"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

const paymentColumns = `
	id, schedule_id, borrower_id, amount, paid_at, notes,
	modality, status, checkout_ref, version, created_at, updated_at`

// PaymentRepo implements port.PaymentRepository. Rows are append-only:
// only status, checkout_ref, version and updated_at ever change.
type PaymentRepo struct {
	q pkgpostgres.Querier
}

func NewPaymentRepo(q pkgpostgres.Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p model.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.Exec(ctx, query,
		p.ID(), p.ScheduleID(), p.BorrowerID(), p.Amount(), p.PaidAt().UTC(), p.Notes(),
		p.Modality().String(), p.Status().String(), p.CheckoutRef(), p.Version(),
		p.CreatedAt().UTC(), p.UpdatedAt().UTC(),
	)
	if err != nil {
		return mapInsertError(err, "payment "+p.ID())
	}
	return nil
}

func (r *PaymentRepo) FindByID(ctx context.Context, id string) (model.Payment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return model.Payment{}, mapFindError(err, "payment", id)
	}
	return p, nil
}

func (r *PaymentRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Payment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPayment(row)
	if err != nil {
		return model.Payment{}, mapFindError(err, "payment", id)
	}
	return p, nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, p model.Payment) error {
	query := `
		UPDATE payments SET
			status       = $2,
			checkout_ref = $3,
			version      = $4,
			updated_at   = $5
		WHERE id = $1 AND version = $4 - 1
	`
	tag, err := r.q.Exec(ctx, query, p.ID(), p.Status().String(), p.CheckoutRef(), p.Version(), p.UpdatedAt().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func (r *PaymentRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE schedule_id = $1 ORDER BY paid_at, created_at, id`
	return r.list(ctx, query, scheduleID)
}

func (r *PaymentRepo) ListByBorrower(ctx context.Context, borrowerID string) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE borrower_id = $1 ORDER BY paid_at, created_at, id`
	return r.list(ctx, query, borrowerID)
}

func (r *PaymentRepo) SumCommitted(ctx context.Context, scheduleID string) (decimal.Decimal, error) {
	return r.sum(ctx, scheduleID, valueobject.PaymentStatusPending.String(), valueobject.PaymentStatusCompleted.String())
}

func (r *PaymentRepo) SumSettled(ctx context.Context, scheduleID string) (decimal.Decimal, error) {
	return r.sum(ctx, scheduleID, valueobject.PaymentStatusCompleted.String())
}

func (r *PaymentRepo) sum(ctx context.Context, scheduleID string, statuses ...string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE schedule_id = $1 AND status = ANY($2)`,
		scheduleID, statuses,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

func (r *PaymentRepo) list(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(s scannable) (model.Payment, error) {
	var (
		id, scheduleID, borrowerID string
		amount                     decimal.Decimal
		paidAt                     time.Time
		notes                      string
		modalityStr, statusStr     string
		checkoutRef                string
		version                    int
		createdAt, updatedAt       time.Time
	)
	if err := s.Scan(
		&id, &scheduleID, &borrowerID, &amount, &paidAt, &notes,
		&modalityStr, &statusStr, &checkoutRef, &version, &createdAt, &updatedAt,
	); err != nil {
		return model.Payment{}, err
	}

	modality, err := valueobject.NewPaymentModality(modalityStr)
	if err != nil {
		return model.Payment{}, fmt.Errorf("parse modality: %w", err)
	}
	status, err := valueobject.NewPaymentStatus(statusStr)
	if err != nil {
		return model.Payment{}, fmt.Errorf("parse payment status: %w", err)
	}

	return model.ReconstructPayment(
		id, scheduleID, borrowerID, amount, paidAt.UTC(), notes,
		modality, status, checkoutRef, version, createdAt.UTC(), updatedAt.UTC(),
	), nil
}

var _ port.PaymentRepository = (*PaymentRepo)(nil)
