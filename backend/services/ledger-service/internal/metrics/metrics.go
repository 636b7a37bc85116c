package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by the ledger.
const (
	OutcomeSale             = "sale"
	OutcomeNoBaseline       = "no_baseline"
	OutcomeNoChange         = "no_change"
	OutcomeMeterReset       = "meter_reset"
	OutcomePriceUnavailable = "price_unavailable"
	OutcomeAmountOutOfRange = "amount_out_of_range"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeNotFound         = "not_found"
	OutcomeStorageError     = "storage_error"
)

// Ledger exposes submission health signals.
type Ledger struct {
	submissions    *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
	derivedVolume  prometheus.Counter
	degradedWrites *prometheus.CounterVec
}

// NewLedger registers the ledger collectors on reg. A nil reg skips registration.
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuelflow",
			Subsystem: "ledger",
			Name:      "submissions_total",
			Help:      "Meter reading submissions by outcome.",
		}, []string{"outcome"}),
		submitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fuelflow",
			Subsystem: "ledger",
			Name:      "submit_duration_seconds",
			Help:      "Latency of meter reading submissions.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}),
		derivedVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fuelflow",
			Subsystem: "ledger",
			Name:      "derived_volume_total",
			Help:      "Fuel volume turned into draft sales.",
		}),
		degradedWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuelflow",
			Subsystem: "ledger",
			Name:      "degraded_writes_total",
			Help:      "Sale or review writes that failed while the reading was kept.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.submissions, m.submitDuration, m.derivedVolume, m.degradedWrites)
	}
	return m
}

// ObserveSubmission records one submission.
func (m *Ledger) ObserveSubmission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.submitDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AddDerivedVolume adds volume of a persisted sale.
func (m *Ledger) AddDerivedVolume(volume float64) {
	if m == nil || volume <= 0 {
		return
	}
	m.derivedVolume.Add(volume)
}

// DegradedWrite counts a failed sale or review write.
func (m *Ledger) DegradedWrite(kind string) {
	if m == nil {
		return
	}
	m.degradedWrites.WithLabelValues(kind).Inc()
}
