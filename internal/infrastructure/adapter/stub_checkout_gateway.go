// Package adapter holds outbound integrations with third-party providers.
package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/kuwago/lending/internal/domain/port"
)

// StubCheckoutGateway opens no real session. It returns a deterministic
// reference derived from the payment, so repeated runs are reproducible.
type StubCheckoutGateway struct {
	prefix string
}

func NewStubCheckoutGateway() *StubCheckoutGateway {
	return &StubCheckoutGateway{prefix: "chk_stub_"}
}

func (g *StubCheckoutGateway) CreateCheckout(ctx context.Context, req port.CheckoutRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.PaymentID == "" {
		return "", fmt.Errorf("payment ID is required")
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("checkout amount must be positive, got %s", req.Amount)
	}

	h := sha256.Sum256([]byte(req.PaymentID + "|" + req.ScheduleID + "|" + req.Amount.StringFixed(2)))
	return g.prefix + hex.EncodeToString(h[:8]), nil
}

var _ port.CheckoutGateway = (*StubCheckoutGateway)(nil)
