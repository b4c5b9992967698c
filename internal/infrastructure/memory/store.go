// Package memory is an in-process implementation of the lending ports. It is
// used by tests and by the STORE_DRIVER=memory development mode. Transactions
// are serialized and applied copy-on-commit.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/pkg/events"
)

type state struct {
	requests   map[string]model.LoanRequest
	agreements map[string]model.LoanAgreement
	schedules  map[string]model.PaymentSchedule
	payments   map[string]model.Payment
	scores     map[string]model.CreditScore
	outbox     []events.OutboxEntry
}

func newState() *state {
	return &state{
		requests:   map[string]model.LoanRequest{},
		agreements: map[string]model.LoanAgreement{},
		schedules:  map[string]model.PaymentSchedule{},
		payments:   map[string]model.Payment{},
		scores:     map[string]model.CreditScore{},
	}
}

func (s *state) clone() *state {
	return &state{
		requests:   maps.Clone(s.requests),
		agreements: maps.Clone(s.agreements),
		schedules:  maps.Clone(s.schedules),
		payments:   maps.Clone(s.payments),
		scores:     maps.Clone(s.scores),
		outbox:     append([]events.OutboxEntry(nil), s.outbox...),
	}
}

// Store holds all entities behind one mutex.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// accessor runs f against a state snapshot, taking the lock when needed.
type accessor func(f func(*state) error) error

func (s *Store) live(f func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.state)
}

// Repositories returns repositories that read and write the committed state
// directly, one call at a time.
func (s *Store) Repositories() port.Repositories {
	return reposFor(s.live)
}

// WithinTransaction runs fn against a private copy of the state and publishes
// the copy only when fn succeeds.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	inTx := func(f func(*state) error) error { return f(work) }
	if err := fn(ctx, reposFor(inTx)); err != nil {
		return err
	}
	s.state = work
	return nil
}

func reposFor(access accessor) port.Repositories {
	return port.Repositories{
		LoanRequests: &loanRequestRepo{access: access},
		Agreements:   &agreementRepo{access: access},
		Schedules:    &scheduleRepo{access: access},
		Payments:     &paymentRepo{access: access},
		CreditScores: &creditScoreRepo{access: access},
		Outbox:       &outbox{access: access},
	}
}

// Outbox exposes the store's outbox to the relay.
func (s *Store) Outbox() events.OutboxRepository {
	return &outbox{access: s.live}
}

var _ port.UnitOfWork = (*Store)(nil)
