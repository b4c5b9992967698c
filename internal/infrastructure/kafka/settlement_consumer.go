package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/port"
	pkgkafka "github.com/kuwago/lending/pkg/kafka"
)

// Settlement outcomes reported by the checkout gateway.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
)

// SettlementNotification is the message body on the settlements topic.
type SettlementNotification struct {
	PaymentID string `json:"payment_id"`
	Outcome   string `json:"outcome"`
}

type settler interface {
	Execute(ctx context.Context, req dto.SettlePaymentRequest) (dto.SettlementResponse, error)
}

// SettlementHandler drives payment completion and cancellation from gateway
// notifications. Replayed and malformed notifications are acknowledged and
// logged. Contention and unexpected failures leave the offset uncommitted.
type SettlementHandler struct {
	complete settler
	cancel   settler
	logger   *slog.Logger
}

func NewSettlementHandler(complete, cancel settler, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{complete: complete, cancel: cancel, logger: logger}
}

// Handle satisfies pkg/kafka.Handler.
func (h *SettlementHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var n SettlementNotification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		h.logger.WarnContext(ctx, "discarding malformed settlement", "error", err)
		return nil
	}

	var uc settler
	switch strings.ToLower(n.Outcome) {
	case OutcomeCompleted:
		uc = h.complete
	case OutcomeCancelled:
		uc = h.cancel
	default:
		h.logger.WarnContext(ctx, "discarding settlement with unknown outcome", "payment_id", n.PaymentID, "outcome", n.Outcome)
		return nil
	}

	resp, err := uc.Execute(ctx, dto.SettlePaymentRequest{PaymentID: n.PaymentID})
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "settlement applied", "payment_id", resp.PaymentID, "status", resp.Status)
		return nil
	case errors.Is(err, port.ErrVersionConflict):
		return fmt.Errorf("settle payment %s: %w", n.PaymentID, err)
	case apperr.IsConflict(err), apperr.IsValidation(err), apperr.IsNotFound(err):
		h.logger.WarnContext(ctx, "settlement rejected", "payment_id", n.PaymentID, "outcome", n.Outcome, "error", err)
		return nil
	default:
		return fmt.Errorf("settle payment %s: %w", n.PaymentID, err)
	}
}
