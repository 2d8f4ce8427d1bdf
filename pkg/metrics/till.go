package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TillMetrics records the money-path counters for the till engine.
type TillMetrics struct {
	shiftsOpened        prometheus.Counter
	shiftsClosed        *prometheus.CounterVec
	discrepancyCents    prometheus.Histogram
	ledgerEntries       *prometheus.CounterVec
	consistencyFailures prometheus.Counter
}

// NewTillMetrics registers the till metrics on the provided registerer.
func NewTillMetrics(reg prometheus.Registerer) *TillMetrics {
	if reg == nil {
		return &TillMetrics{}
	}
	shiftsOpened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "till_shifts_opened_total",
		Help: "Shifts opened.",
	})
	shiftsClosed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "till_shifts_closed_total",
		Help: "Shifts closed, labeled by reconciliation outcome.",
	}, []string{"outcome"})
	discrepancyCents := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "till_shift_discrepancy_abs_cents",
		Help:    "Absolute cash discrepancy per closed shift in cents.",
		Buckets: []float64{0, 100, 500, 1000, 5000, 10000, 50000},
	})
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "till_credit_ledger_entries_total",
		Help: "Credit ledger entries posted, labeled by entry type.",
	}, []string{"type"})
	consistencyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "till_ledger_consistency_failures_total",
		Help: "Customers whose ledger replay disagreed with the projected balance.",
	})
	reg.MustRegister(shiftsOpened, shiftsClosed, discrepancyCents, ledgerEntries, consistencyFailures)
	return &TillMetrics{
		shiftsOpened:        shiftsOpened,
		shiftsClosed:        shiftsClosed,
		discrepancyCents:    discrepancyCents,
		ledgerEntries:       ledgerEntries,
		consistencyFailures: consistencyFailures,
	}
}

// IncShiftOpened counts a successful shift open.
func (m *TillMetrics) IncShiftOpened() {
	if m == nil || m.shiftsOpened == nil {
		return
	}
	m.shiftsOpened.Inc()
}

// ObserveShiftClosed counts a close and records the absolute discrepancy.
func (m *TillMetrics) ObserveShiftClosed(discrepancyCents int64) {
	if m == nil || m.shiftsClosed == nil {
		return
	}
	outcome := "balanced"
	if discrepancyCents != 0 {
		outcome = "discrepant"
	}
	m.shiftsClosed.WithLabelValues(outcome).Inc()
	abs := discrepancyCents
	if abs < 0 {
		abs = -abs
	}
	m.discrepancyCents.Observe(float64(abs))
}

// IncLedgerEntry counts a posted ledger entry by type.
func (m *TillMetrics) IncLedgerEntry(entryType string) {
	if m == nil || m.ledgerEntries == nil {
		return
	}
	if entryType == "" {
		entryType = "unknown"
	}
	m.ledgerEntries.WithLabelValues(entryType).Inc()
}

// IncConsistencyFailure counts a ledger replay mismatch.
func (m *TillMetrics) IncConsistencyFailure() {
	if m == nil || m.consistencyFailures == nil {
		return
	}
	m.consistencyFailures.Inc()
}
