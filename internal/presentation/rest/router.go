// Package rest serves the HTTP side of the lending service: probes,
// Prometheus scraping and the checkout gateway's settlement callbacks.
package rest

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RouterConfig holds what the HTTP surface serves. Nil parts are not routed.
type RouterConfig struct {
	Health   *HealthHandler
	Webhooks *WebhookHandler
	Metrics  http.Handler
	// Registerer receives the HTTP request metrics; nil disables them.
	Registerer prometheus.Registerer
}

func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	if cfg.Registerer != nil {
		r.Use(instrument(cfg.Registerer))
	}

	if cfg.Health != nil {
		r.HandleFunc("/healthz", cfg.Health.liveness).Methods(http.MethodGet)
		r.HandleFunc("/readyz", cfg.Health.readiness).Methods(http.MethodGet)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	if cfg.Webhooks != nil {
		hooks := r.PathPrefix("/webhooks/checkout").Subrouter()
		hooks.HandleFunc("/{paymentID}/complete", cfg.Webhooks.completePayment).Methods(http.MethodPost)
		hooks.HandleFunc("/{paymentID}/cancel", cfg.Webhooks.cancelPayment).Methods(http.MethodPost)
	}
	return r
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency per route template.
func instrument(reg prometheus.Registerer) mux.MiddlewareFunc {
	factory := promauto.With(reg)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "lending_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	latency := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lending_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			timer := prometheus.NewTimer(latency.WithLabelValues(r.Method, route))
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			timer.ObserveDuration()
			requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		})
	}
}
