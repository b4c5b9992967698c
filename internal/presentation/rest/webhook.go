package rest

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/port"
)

// WebhookSecretHeader carries the secret shared with the checkout gateway.
const WebhookSecretHeader = "X-Checkout-Secret"

type settler interface {
	Execute(ctx context.Context, req dto.SettlePaymentRequest) (dto.SettlementResponse, error)
}

// WebhookHandler receives settlement callbacks from the checkout gateway.
type WebhookHandler struct {
	complete settler
	cancel   settler
	secret   []byte
	logger   *slog.Logger
}

func NewWebhookHandler(complete, cancel settler, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{complete: complete, cancel: cancel, secret: []byte(secret), logger: logger}
}

func (h *WebhookHandler) authorized(r *http.Request) bool {
	got := []byte(r.Header.Get(WebhookSecretHeader))
	return len(h.secret) > 0 && subtle.ConstantTimeCompare(got, h.secret) == 1
}

func (h *WebhookHandler) completePayment(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.complete)
}

func (h *WebhookHandler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.cancel)
}

func (h *WebhookHandler) settle(w http.ResponseWriter, r *http.Request, uc settler) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	paymentID := mux.Vars(r)["paymentID"]
	resp, err := uc.Execute(r.Context(), dto.SettlePaymentRequest{PaymentID: paymentID})
	if err != nil {
		status, msg := httpStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "settlement webhook failed", "payment_id", paymentID, "error", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// httpStatus maps the lending error taxonomy onto HTTP status codes.
func httpStatus(err error) (int, string) {
	if errors.Is(err, port.ErrVersionConflict) {
		return http.StatusServiceUnavailable, "concurrent update, retry"
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound, err.Error()
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity, err.Error()
	case apperr.KindConflict:
		return http.StatusConflict, err.Error()
	case apperr.KindUnauthorized:
		return http.StatusForbidden, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
