package model

import (
	"strings"
	"time"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/valueobject"
)

// Scoring constants. They are fixed, not configurable.
const (
	InitialScore  = 600
	MinScore      = 300
	MaxScore      = 850
	OnTimeReward  = 20
	MissedPenalty = 30
)

// CreditScore is a borrower's repayment-timeliness score. Version is an
// optimistic-concurrency counter; every outcome bumps it by one.
type CreditScore struct {
	borrowerID           string
	score                int
	totalLoans           int
	successfulRepayments int
	missedRepayments     int
	lastUpdated          time.Time
	version              int
	domainEvents         []event.DomainEvent
}

// NewCreditScore starts a borrower at InitialScore.
func NewCreditScore(borrowerID string, now time.Time) (CreditScore, error) {
	borrowerID = strings.TrimSpace(borrowerID)
	if borrowerID == "" {
		return CreditScore{}, apperr.Validation("borrower ID is required")
	}
	now = now.UTC()
	cs := CreditScore{
		borrowerID:  borrowerID,
		score:       InitialScore,
		lastUpdated: now,
		version:     1,
	}
	cs.domainEvents = append(cs.domainEvents, event.NewCreditScoreInitialized(borrowerID, InitialScore, now))
	return cs, nil
}

// ReconstructCreditScore rebuilds a score from persistence.
func ReconstructCreditScore(
	borrowerID string,
	score, totalLoans, successful, missed int,
	lastUpdated time.Time,
	version int,
) CreditScore {
	return CreditScore{
		borrowerID:           borrowerID,
		score:                score,
		totalLoans:           totalLoans,
		successfulRepayments: successful,
		missedRepayments:     missed,
		lastUpdated:          lastUpdated,
		version:              version,
	}
}

// RecordRepaymentOutcome applies one repayment outcome. Every call counts
// toward totalLoans, whether or not it was on time.
func (c CreditScore) RecordRepaymentOutcome(onTime bool, now time.Time) CreditScore {
	now = now.UTC()
	next := c
	next.totalLoans = c.totalLoans + 1
	if onTime {
		next.successfulRepayments = c.successfulRepayments + 1
		next.score = clampScore(c.score + OnTimeReward)
	} else {
		next.missedRepayments = c.missedRepayments + 1
		next.score = clampScore(c.score - MissedPenalty)
	}
	next.lastUpdated = now
	next.version = c.version + 1
	next.domainEvents = copyEvents(c.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewCreditScoreUpdated(
		c.borrowerID, c.score, next.score, onTime,
		next.totalLoans, next.successfulRepayments, next.missedRepayments, now,
	))
	return next
}

func clampScore(score int) int {
	return min(max(score, MinScore), MaxScore)
}

func (c CreditScore) BorrowerID() string                { return c.borrowerID }
func (c CreditScore) Score() int                        { return c.score }
func (c CreditScore) TotalLoans() int                   { return c.totalLoans }
func (c CreditScore) SuccessfulRepayments() int         { return c.successfulRepayments }
func (c CreditScore) MissedRepayments() int             { return c.missedRepayments }
func (c CreditScore) LastUpdated() time.Time            { return c.lastUpdated }
func (c CreditScore) Version() int                      { return c.version }
func (c CreditScore) DomainEvents() []event.DomainEvent { return c.domainEvents }

// Category buckets the score for display.
func (c CreditScore) Category() valueobject.ScoreCategory {
	return valueobject.CategorizeScore(c.score)
}

// ClearEvents returns a copy with an empty event list.
func (c CreditScore) ClearEvents() CreditScore {
	next := c
	next.domainEvents = nil
	return next
}
