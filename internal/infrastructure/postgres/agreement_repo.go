package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/money"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

const agreementColumns = `
	id, loan_request_id, borrower_id, lender_id, principal,
	interest_rate, term_months, modality, currency, created_at`

// AgreementRepo implements port.LoanAgreementRepository. The
// loan_agreements_loan_request_id_key constraint keeps one agreement per
// request.
type AgreementRepo struct {
	q pkgpostgres.Querier
}

func NewAgreementRepo(q pkgpostgres.Querier) *AgreementRepo {
	return &AgreementRepo{q: q}
}

func (r *AgreementRepo) Create(ctx context.Context, a model.LoanAgreement) error {
	query := `
		INSERT INTO loan_agreements (` + agreementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.Exec(ctx, query,
		a.ID(), a.LoanRequestID(), a.BorrowerID(), a.LenderID(), a.Principal(),
		a.InterestRate(), a.TermMonths(), a.Modality().String(), a.Currency().Code(), a.CreatedAt().UTC(),
	)
	if err != nil {
		return mapInsertError(err, "agreement for loan request "+a.LoanRequestID())
	}
	return nil
}

func (r *AgreementRepo) FindByID(ctx context.Context, id string) (model.LoanAgreement, error) {
	row := r.q.QueryRow(ctx, `SELECT `+agreementColumns+` FROM loan_agreements WHERE id = $1`, id)
	a, err := scanAgreement(row)
	if err != nil {
		return model.LoanAgreement{}, mapFindError(err, "loan agreement", id)
	}
	return a, nil
}

func (r *AgreementRepo) FindByLoanRequestID(ctx context.Context, loanRequestID string) (model.LoanAgreement, error) {
	row := r.q.QueryRow(ctx, `SELECT `+agreementColumns+` FROM loan_agreements WHERE loan_request_id = $1`, loanRequestID)
	a, err := scanAgreement(row)
	if err != nil {
		return model.LoanAgreement{}, mapFindError(err, "agreement for loan request", loanRequestID)
	}
	return a, nil
}

func scanAgreement(s scannable) (model.LoanAgreement, error) {
	var (
		id, loanRequestID, borrowerID, lenderID string
		principal, rate                         decimal.Decimal
		termMonths                              int
		modalityStr, currencyStr                string
		createdAt                               time.Time
	)
	if err := s.Scan(
		&id, &loanRequestID, &borrowerID, &lenderID, &principal,
		&rate, &termMonths, &modalityStr, &currencyStr, &createdAt,
	); err != nil {
		return model.LoanAgreement{}, err
	}

	modality, err := valueobject.NewPaymentModality(modalityStr)
	if err != nil {
		return model.LoanAgreement{}, fmt.Errorf("parse modality: %w", err)
	}
	currency, err := money.NewCurrency(currencyStr)
	if err != nil {
		return model.LoanAgreement{}, fmt.Errorf("parse currency: %w", err)
	}

	return model.ReconstructLoanAgreement(
		id, loanRequestID, borrowerID, lenderID,
		principal, rate, termMonths, modality, currency, createdAt.UTC(),
	), nil
}

var _ port.LoanAgreementRepository = (*AgreementRepo)(nil)
