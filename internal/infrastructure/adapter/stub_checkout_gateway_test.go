package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/pkg/testutil"
)

func TestStubCheckoutGateway_CreateCheckout(t *testing.T) {
	gw := NewStubCheckoutGateway()
	req := port.CheckoutRequest{
		PaymentID:  "pay-1",
		ScheduleID: "sched-1",
		BorrowerID: testutil.TestBorrowerID,
		Amount:     testutil.Dec("3666.67"),
		Currency:   "PHP",
	}

	ref, err := gw.CreateCheckout(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "chk_stub_"))
	assert.Len(t, ref, len("chk_stub_")+16)

	again, err := gw.CreateCheckout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	req.PaymentID = "pay-2"
	other, err := gw.CreateCheckout(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestStubCheckoutGateway_Rejects(t *testing.T) {
	gw := NewStubCheckoutGateway()

	_, err := gw.CreateCheckout(context.Background(), port.CheckoutRequest{Amount: testutil.Dec("10")})
	assert.Error(t, err)

	_, err = gw.CreateCheckout(context.Background(), port.CheckoutRequest{PaymentID: "p", Amount: testutil.Dec("0")})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gw.CreateCheckout(ctx, port.CheckoutRequest{PaymentID: "p", Amount: testutil.Dec("1")})
	assert.ErrorIs(t, err, context.Canceled)
}
