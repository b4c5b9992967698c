package usecase

import (
	"context"
	"fmt"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/port"
)

// GetCreditScore returns a borrower's score and category.
type GetCreditScore struct {
	scores port.CreditScoreRepository
}

func NewGetCreditScore(scores port.CreditScoreRepository) *GetCreditScore {
	return &GetCreditScore{scores: scores}
}

func (uc *GetCreditScore) Execute(ctx context.Context, req dto.GetCreditScoreRequest) (dto.CreditScoreResponse, error) {
	if req.BorrowerID == "" {
		return dto.CreditScoreResponse{}, apperr.Validation("borrower ID is required")
	}
	score, err := uc.scores.FindByBorrowerID(ctx, req.BorrowerID)
	if err != nil {
		return dto.CreditScoreResponse{}, fmt.Errorf("find credit score: %w", err)
	}
	return toCreditScoreResponse(score), nil
}
