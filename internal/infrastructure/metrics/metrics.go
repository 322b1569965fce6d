package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger-level Prometheus metrics. HTTP metrics live in
// the middleware package.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationAmount   *prometheus.HistogramVec
	OperationDuration *prometheus.HistogramVec

	AccountsRegistered prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
	AssistantRequests  *prometheus.CounterVec
}

// New creates and registers all ledger metrics.
func New() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kodbank_ledger_operations_total",
				Help: "Total ledger operations by type and outcome",
			},
			[]string{"operation", "status"},
		),
		OperationAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kodbank_ledger_operation_amount",
				Help:    "Amounts moved by committed ledger operations",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"operation"},
		),
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kodbank_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		AccountsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kodbank_accounts_registered_total",
			Help: "Total number of registered accounts",
		}),
		LoginAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kodbank_login_attempts_total",
				Help: "Total login attempts by outcome",
			},
			[]string{"status"},
		),
		AssistantRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kodbank_assistant_requests_total",
				Help: "Total assistant proxy requests by outcome",
			},
			[]string{"status"},
		),
	}
}
