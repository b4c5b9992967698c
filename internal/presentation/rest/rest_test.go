package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/internal/infrastructure/adapter"
	"github.com/kuwago/lending/internal/infrastructure/memory"
	"github.com/kuwago/lending/pkg/testutil"
)

const secret = "shared-webhook-secret"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// pendingPayment provisions a schedule and records one electronic payment
// that awaits settlement.
func pendingPayment(t *testing.T, set *usecase.Set) string {
	t.Helper()
	ctx := context.Background()
	req, err := set.SubmitLoanRequest.Execute(ctx, dto.SubmitLoanRequestRequest{
		BorrowerID: testutil.TestBorrowerID,
		LoanType:   "Business",
		Amount:     testutil.Dec("10000"),
	})
	require.NoError(t, err)
	sched, err := set.ApproveLoan.Execute(ctx, dto.ApproveLoanRequest{
		LoanRequestID: req.ID,
		LenderID:      testutil.TestLenderID,
		Principal:     testutil.Dec("10000"),
		InterestRate:  testutil.Dec("10"),
		TermMonths:    3,
		Modality:      "ECASH",
	})
	require.NoError(t, err)
	receipt, err := set.SubmitPayment.Execute(ctx, dto.SubmitPaymentRequest{
		ScheduleID: sched.ID,
		BorrowerID: testutil.TestBorrowerID,
		Amount:     testutil.Dec("3666.67"),
		Modality:   "ECASH",
	})
	require.NoError(t, err)
	require.Equal(t, "PENDING", receipt.Status)
	return receipt.PaymentID
}

func newTestRouter(t *testing.T, reg *prometheus.Registry, checks ...ReadinessCheck) (http.Handler, *usecase.Set) {
	t.Helper()
	store := memory.NewStore()
	now := time.Date(2025, time.February, 10, 8, 0, 0, 0, time.UTC)
	set := usecase.NewSet(store, store.Repositories(), adapter.NewStubCheckoutGateway(),
		usecase.WithClock(func() time.Time { return now }),
		usecase.WithLogger(discard),
	)
	router := NewRouter(RouterConfig{
		Health:     NewHealthHandler("lending-service", discard, checks...),
		Webhooks:   NewWebhookHandler(set.CompletePayment, set.CancelPayment, secret, discard),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Registerer: reg,
	})
	return router, set
}

func post(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(WebhookSecretHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_CompletePayment(t *testing.T) {
	router, set := newTestRouter(t, prometheus.NewRegistry())
	paymentID := pendingPayment(t, set)

	rec := post(t, router, "/webhooks/checkout/"+paymentID+"/complete", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, router, "/webhooks/checkout/"+paymentID+"/complete", secret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.SettlementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.Status)
	testutil.AssertDecimal(t, "7333.33", resp.RemainingBalance)
	require.NotNil(t, resp.OnTime)
	assert.True(t, *resp.OnTime)

	rec = post(t, router, "/webhooks/checkout/"+paymentID+"/complete", secret)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(t, router, "/webhooks/checkout/"+paymentID+"/cancel", secret)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWebhook_CancelPayment(t *testing.T) {
	router, set := newTestRouter(t, prometheus.NewRegistry())
	paymentID := pendingPayment(t, set)

	rec := post(t, router, "/webhooks/checkout/"+paymentID+"/cancel", secret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"CANCELLED"`)

	rec = post(t, router, "/webhooks/checkout/missing/cancel", secret)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/checkout/"+paymentID+"/cancel", nil)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)
	assert.Equal(t, http.StatusMethodNotAllowed, get.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var dbDown error
	router, _ := newTestRouter(t, reg, ReadinessCheck{
		Name:  "postgres",
		Check: func(context.Context) error { return dbDown },
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/healthz").Code)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	dbDown = errors.New("connection refused")
	rec := get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	metrics := get("/metrics").Body.String()
	assert.True(t, strings.Contains(metrics, `lending_http_requests_total{method="GET",route="/readyz",status="503"} 1`), metrics)
}
