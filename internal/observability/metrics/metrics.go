package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the engine's prometheus instruments.
type Metrics struct {
	Registry *prometheus.Registry

	ReadingsIngested  prometheus.Counter
	ReadingsRejected  prometheus.Counter
	BillsGenerated    prometheus.Counter
	PaymentsRecorded  prometheus.Counter
	ReconcileRuns     prometheus.Counter
	ReconcileEntries  prometheus.Counter
	ReconcileFlagged  prometheus.Counter
	ReconcileDuration prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: registry,
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_meter_readings_ingested_total",
			Help: "Meter readings accepted on the write path.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_meter_readings_rejected_total",
			Help: "Meter readings rejected by validation.",
		}),
		BillsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_bills_generated_total",
			Help: "Monthly bills persisted.",
		}),
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_payments_recorded_total",
			Help: "Payments appended to bill payment history.",
		}),
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_reconcile_runs_total",
			Help: "Reconciliation job runs.",
		}),
		ReconcileEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_reconcile_entries_processed_total",
			Help: "Ledger entries rewritten by reconciliation.",
		}),
		ReconcileFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_reconcile_entries_flagged_total",
			Help: "Ledger entries clamped to zero during reconciliation.",
		}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentledger_reconcile_duration_seconds",
			Help:    "Wall time of a reconciliation run.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.ReadingsIngested,
		m.ReadingsRejected,
		m.BillsGenerated,
		m.PaymentsRecorded,
		m.ReconcileRuns,
		m.ReconcileEntries,
		m.ReconcileFlagged,
		m.ReconcileDuration,
	)

	return m
}
