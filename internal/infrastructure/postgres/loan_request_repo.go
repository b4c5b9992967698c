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

const loanRequestColumns = `
	id, borrower_id, loan_type, amount, purpose, status,
	lender_id, decision_reason, agreed_at, version, created_at, updated_at`

// LoanRequestRepo implements port.LoanRequestRepository.
type LoanRequestRepo struct {
	q pkgpostgres.Querier
}

func NewLoanRequestRepo(q pkgpostgres.Querier) *LoanRequestRepo {
	return &LoanRequestRepo{q: q}
}

func (r *LoanRequestRepo) Create(ctx context.Context, req model.LoanRequest) error {
	query := `
		INSERT INTO loan_requests (` + loanRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.Exec(ctx, query,
		req.ID(), req.BorrowerID(), req.LoanType(), req.Amount(), req.Purpose(), req.Status().String(),
		req.LenderID(), req.DecisionReason(), nullableTime(req.AgreedAt()), req.Version(),
		req.CreatedAt().UTC(), req.UpdatedAt().UTC(),
	)
	if err != nil {
		return mapInsertError(err, "loan request "+req.ID())
	}
	return nil
}

func (r *LoanRequestRepo) FindByID(ctx context.Context, id string) (model.LoanRequest, error) {
	row := r.q.QueryRow(ctx, `SELECT `+loanRequestColumns+` FROM loan_requests WHERE id = $1`, id)
	req, err := scanLoanRequest(row)
	if err != nil {
		return model.LoanRequest{}, mapFindError(err, "loan request", id)
	}
	return req, nil
}

func (r *LoanRequestRepo) FindByIDForUpdate(ctx context.Context, id string) (model.LoanRequest, error) {
	row := r.q.QueryRow(ctx, `SELECT `+loanRequestColumns+` FROM loan_requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanLoanRequest(row)
	if err != nil {
		return model.LoanRequest{}, mapFindError(err, "loan request", id)
	}
	return req, nil
}

// Update writes a status transition guarded by the previous version.
func (r *LoanRequestRepo) Update(ctx context.Context, req model.LoanRequest) error {
	query := `
		UPDATE loan_requests SET
			status          = $2,
			lender_id       = $3,
			decision_reason = $4,
			agreed_at       = $5,
			version         = $6,
			updated_at      = $7
		WHERE id = $1 AND version = $6 - 1
	`
	tag, err := r.q.Exec(ctx, query,
		req.ID(), req.Status().String(), req.LenderID(), req.DecisionReason(),
		nullableTime(req.AgreedAt()), req.Version(), req.UpdatedAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update loan request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func scanLoanRequest(s scannable) (model.LoanRequest, error) {
	var (
		id, borrowerID, loanType, purpose string
		amount                            decimal.Decimal
		statusStr                         string
		lenderID, decisionReason          string
		agreedAt                          *time.Time
		version                           int
		createdAt, updatedAt              time.Time
	)
	if err := s.Scan(
		&id, &borrowerID, &loanType, &amount, &purpose, &statusStr,
		&lenderID, &decisionReason, &agreedAt, &version, &createdAt, &updatedAt,
	); err != nil {
		return model.LoanRequest{}, err
	}

	status, err := valueobject.NewLoanRequestStatus(statusStr)
	if err != nil {
		return model.LoanRequest{}, fmt.Errorf("parse loan request status: %w", err)
	}

	return model.ReconstructLoanRequest(
		id, borrowerID, loanType, amount, purpose, status,
		lenderID, decisionReason, utcPtr(agreedAt), version,
		createdAt.UTC(), updatedAt.UTC(),
	), nil
}

var _ port.LoanRequestRepository = (*LoanRequestRepo)(nil)
