package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsBooked *prometheus.CounterVec
	TransactionAmount  prometheus.Histogram
	BalanceOverrides   prometheus.Counter
	Balance            prometheus.Gauge

	// Document metrics
	DocumentsCreated      *prometheus.CounterVec
	DocumentStatusChanges *prometheus.CounterVec
	PaymentsRecorded      *prometheus.CounterVec
	PaymentAmount         prometheus.Histogram

	// Rendering metrics
	RenderDuration  prometheus.Histogram
	RenderFailures  prometheus.Counter
	RenderCacheHits prometheus.Counter

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// Consistency metrics
	ConsistencyIssues prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger metrics
		TransactionsBooked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_transactions_booked_total",
				Help: "Total number of ledger transactions booked by type",
			},
			[]string{"type"},
		),
		TransactionAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finance_transaction_amount_euros",
			Help:    "Ledger transaction amounts",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
		BalanceOverrides: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finance_balance_overrides_total",
			Help: "Total number of manual balance overrides",
		}),
		Balance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "finance_balance_euros",
			Help: "Running balance as of the last read or write",
		}),

		// Document metrics
		DocumentsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_documents_created_total",
				Help: "Total number of quotes and invoices created",
			},
			[]string{"type"},
		),
		DocumentStatusChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_document_status_changes_total",
				Help: "Total document status changes by type and target status",
			},
			[]string{"type", "status"},
		),
		PaymentsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_payments_recorded_total",
				Help: "Total payments recorded by target",
			},
			[]string{"target"},
		),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finance_payment_amount_euros",
			Help:    "Recorded payment amounts",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),

		// Rendering metrics
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finance_render_duration_seconds",
			Help:    "Duration of PDF rendering calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		RenderFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finance_render_failures_total",
			Help: "Total number of failed PDF renderings",
		}),
		RenderCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finance_render_cache_hits_total",
			Help: "Total number of PDF renderings served from cache",
		}),

		// Outbox metrics
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_events_published_total",
				Help: "Total outbox events published by result",
			},
			[]string{"result"},
		),

		// Consistency metrics
		ConsistencyIssues: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "finance_consistency_issues",
			Help: "Number of issues found by the last consistency check",
		}),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action"},
		),
	}
}
