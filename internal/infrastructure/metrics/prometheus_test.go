package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_Counters(t *testing.T) {
	m := NewPrometheus(prometheus.NewRegistry())

	m.PaymentRecorded("CASH", "COMPLETED")
	m.PaymentRecorded("CASH", "COMPLETED")
	m.PaymentRecorded("ECASH", "PENDING")
	m.CreditScoreUpdated(true)
	m.CreditScoreUpdated(false)
	m.CreditScoreUpdated(false)
	m.ScheduleProvisioned()
	m.OutboxRelayed(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentsRecorded.WithLabelValues("CASH", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsRecorded.WithLabelValues("ECASH", "PENDING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.creditScoreUpdates.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.creditScoreUpdates.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schedulesProvisioned))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.outboxRelayed))
}

func TestNewPrometheus_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheus(prometheus.NewRegistry())
		NewPrometheus(prometheus.NewRegistry())
	})
}
