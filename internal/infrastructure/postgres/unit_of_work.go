package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kuwago/lending/internal/domain/port"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

// Repositories binds every repository to q.
func Repositories(q pkgpostgres.Querier) port.Repositories {
	return port.Repositories{
		LoanRequests: NewLoanRequestRepo(q),
		Agreements:   NewAgreementRepo(q),
		Schedules:    NewScheduleRepo(q),
		Payments:     NewPaymentRepo(q),
		CreditScores: NewCreditScoreRepo(q),
		Outbox:       NewOutboxRepo(q),
	}
}

// UnitOfWork implements port.UnitOfWork on a pgx pool. Serialization
// failures and deadlocks surface as port.ErrVersionConflict so callers can
// retry the whole transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	err := pkgpostgres.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, Repositories(tx))
	})
	if err != nil && pkgpostgres.IsRetryable(err) {
		return port.ErrVersionConflict
	}
	return err
}

var _ port.UnitOfWork = (*UnitOfWork)(nil)
