// Package monitoring exposes Prometheus metrics for the position engine.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Transactions processed by outcome",
		},
		[]string{"order_type", "outcome"},
	)

	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_validation_failures_total",
			Help: "Validation violations by reason",
		},
		[]string{"reason"},
	)

	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_errors_total",
			Help: "Failed position store round-trips",
		},
		[]string{"operation"},
	)

	applyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_apply_duration_seconds",
			Help:    "Time spent applying one transaction, lock wait included",
			Buckets: prometheus.DefBuckets,
		},
	)

	importedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_import_rows_total",
			Help: "Imported rows by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(transactionsTotal)
	prometheus.MustRegister(validationFailures)
	prometheus.MustRegister(storeErrors)
	prometheus.MustRegister(applyDuration)
	prometheus.MustRegister(importedRows)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordOutcome counts one processed transaction.
func RecordOutcome(orderType, outcome string) {
	transactionsTotal.WithLabelValues(orderType, outcome).Inc()
}

// RecordValidationFailure counts one violated validation reason.
func RecordValidationFailure(reason string) {
	validationFailures.WithLabelValues(reason).Inc()
}

// RecordStoreError counts one failed store call.
func RecordStoreError(operation string) {
	storeErrors.WithLabelValues(operation).Inc()
}

// ObserveApply records how long one Apply call took.
func ObserveApply(d time.Duration) {
	applyDuration.Observe(d.Seconds())
}

// RecordImportRow counts one imported row.
func RecordImportRow(status string) {
	importedRows.WithLabelValues(status).Inc()
}
