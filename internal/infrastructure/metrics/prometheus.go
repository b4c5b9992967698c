// Package metrics exposes the lending business counters to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kuwago/lending/internal/domain/port"
)

// Prometheus implements port.Metrics and the outbox relay observer.
type Prometheus struct {
	paymentsRecorded     *prometheus.CounterVec
	creditScoreUpdates   *prometheus.CounterVec
	schedulesProvisioned prometheus.Counter
	outboxRelayed        prometheus.Counter
}

// NewPrometheus registers the counters with reg; nil means the default
// registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Prometheus{
		paymentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_payments_recorded_total",
			Help: "Payments recorded or settled, by modality and resulting status",
		}, []string{"modality", "status"}),
		creditScoreUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_credit_score_updates_total",
			Help: "Credit score updates by repayment timeliness",
		}, []string{"on_time"}),
		schedulesProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "lending_schedules_provisioned_total",
			Help: "Payment schedules provisioned on loan approval",
		}),
		outboxRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "lending_outbox_relayed_total",
			Help: "Outbox entries shipped to the event broker",
		}),
	}
}

func (p *Prometheus) PaymentRecorded(modality, status string) {
	p.paymentsRecorded.WithLabelValues(modality, status).Inc()
}

func (p *Prometheus) CreditScoreUpdated(onTime bool) {
	p.creditScoreUpdates.WithLabelValues(strconv.FormatBool(onTime)).Inc()
}

func (p *Prometheus) ScheduleProvisioned() { p.schedulesProvisioned.Inc() }

func (p *Prometheus) OutboxRelayed(n int) { p.outboxRelayed.Add(float64(n)) }

var _ port.Metrics = (*Prometheus)(nil)
