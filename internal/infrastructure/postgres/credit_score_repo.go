package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

const creditScoreColumns = `
	borrower_id, score, total_loans, successful_repayments,
	missed_repayments, last_updated, version`

// CreditScoreRepo implements port.CreditScoreRepository with a version
// compare-and-swap on every write.
type CreditScoreRepo struct {
	q pkgpostgres.Querier
}

func NewCreditScoreRepo(q pkgpostgres.Querier) *CreditScoreRepo {
	return &CreditScoreRepo{q: q}
}

func (r *CreditScoreRepo) InitializeIfAbsent(ctx context.Context, cs model.CreditScore) (bool, error) {
	query := `
		INSERT INTO credit_scores (` + creditScoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (borrower_id) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, query,
		cs.BorrowerID(), cs.Score(), cs.TotalLoans(), cs.SuccessfulRepayments(),
		cs.MissedRepayments(), cs.LastUpdated().UTC(), cs.Version(),
	)
	if err != nil {
		return false, fmt.Errorf("initialize credit score: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CreditScoreRepo) FindByBorrowerID(ctx context.Context, borrowerID string) (model.CreditScore, error) {
	return r.findOne(ctx, `SELECT `+creditScoreColumns+` FROM credit_scores WHERE borrower_id = $1`, borrowerID)
}

func (r *CreditScoreRepo) FindByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (model.CreditScore, error) {
	return r.findOne(ctx, `SELECT `+creditScoreColumns+` FROM credit_scores WHERE borrower_id = $1 FOR UPDATE`, borrowerID)
}

func (r *CreditScoreRepo) Save(ctx context.Context, cs model.CreditScore) error {
	query := `
		UPDATE credit_scores SET
			score                 = $2,
			total_loans           = $3,
			successful_repayments = $4,
			missed_repayments     = $5,
			last_updated          = $6,
			version               = $7
		WHERE borrower_id = $1 AND version = $7 - 1
	`
	tag, err := r.q.Exec(ctx, query,
		cs.BorrowerID(), cs.Score(), cs.TotalLoans(), cs.SuccessfulRepayments(),
		cs.MissedRepayments(), cs.LastUpdated().UTC(), cs.Version(),
	)
	if err != nil {
		return fmt.Errorf("save credit score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func (r *CreditScoreRepo) findOne(ctx context.Context, query, borrowerID string) (model.CreditScore, error) {
	var (
		id                               string
		score, total, successful, missed int
		lastUpdated                      time.Time
		version                          int
	)
	err := r.q.QueryRow(ctx, query, borrowerID).Scan(&id, &score, &total, &successful, &missed, &lastUpdated, &version)
	if err != nil {
		return model.CreditScore{}, mapFindError(err, "credit score for borrower", borrowerID)
	}
	return model.ReconstructCreditScore(id, score, total, successful, missed, lastUpdated.UTC(), version), nil
}

var _ port.CreditScoreRepository = (*CreditScoreRepo)(nil)
