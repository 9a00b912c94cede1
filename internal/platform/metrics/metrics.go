package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the consent core. Services accept
// a possibly-nil *Metrics so unit tests don't need a registry.
type Metrics struct {
	RequestsSubmitted *prometheus.CounterVec
	CitizenDecisions  *prometheus.CounterVec
	OracleLatency     prometheus.Histogram
	OracleFailures    prometheus.Counter
	KeysIssued        prometheus.Counter
	KeysRevoked       prometheus.Counter
	AuthFailures      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgrid_consent_requests_submitted_total",
			Help: "Consent requests submitted, labeled by initial status",
		}, []string{"status"}),
		CitizenDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgrid_citizen_decisions_total",
			Help: "Citizen decisions applied to pending requests, labeled by decision",
		}, []string{"decision"}),
		OracleLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgrid_oracle_evaluate_duration_seconds",
			Help:    "Latency of policy oracle evaluations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		OracleFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustgrid_oracle_failures_total",
			Help: "Oracle evaluations that failed or timed out and collapsed to refer",
		}),
		KeysIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustgrid_api_keys_issued_total",
			Help: "API keys issued to organizations",
		}),
		KeysRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustgrid_api_keys_revoked_total",
			Help: "API keys revoked",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgrid_auth_failures_total",
			Help: "Authentication failures, labeled by principal kind",
		}, []string{"kind"}),
	}
}

// IncRequestSubmitted records a submitted request by its initial status.
func (m *Metrics) IncRequestSubmitted(status string) {
	if m != nil {
		m.RequestsSubmitted.WithLabelValues(status).Inc()
	}
}

// IncCitizenDecision records a successful citizen decision.
func (m *Metrics) IncCitizenDecision(decision string) {
	if m != nil {
		m.CitizenDecisions.WithLabelValues(decision).Inc()
	}
}

// ObserveOracleLatency records one oracle evaluation duration in seconds.
func (m *Metrics) ObserveOracleLatency(seconds float64) {
	if m != nil {
		m.OracleLatency.Observe(seconds)
	}
}

// IncOracleFailure records an oracle failure downgraded to refer.
func (m *Metrics) IncOracleFailure() {
	if m != nil {
		m.OracleFailures.Inc()
	}
}

// IncKeyIssued records an issued API key.
func (m *Metrics) IncKeyIssued() {
	if m != nil {
		m.KeysIssued.Inc()
	}
}

// IncKeyRevoked records a revoked API key.
func (m *Metrics) IncKeyRevoked() {
	if m != nil {
		m.KeysRevoked.Inc()
	}
}

// IncAuthFailure records an authentication failure for the given principal
// kind ("org_key", "org_password", "citizen").
func (m *Metrics) IncAuthFailure(kind string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(kind).Inc()
	}
}
