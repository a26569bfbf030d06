package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TransactionsProcessed counts ledger operations by type and outcome status
var TransactionsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "neobank_transactions_total",
		Help: "Total number of ledger transactions processed",
	},
	[]string{"type", "status"},
)

// TransactionLatency records latency distribution for ledger operations
var TransactionLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "neobank_transaction_latency_seconds",
		Help:    "Latency in seconds to process ledger transactions",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"type"},
)

// AccountsCreated counts accounts opened by account type
var AccountsCreated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "neobank_accounts_created_total",
		Help: "Total number of accounts opened",
	},
	[]string{"type"},
)

// UsersRegistered counts successful user registrations
var UsersRegistered = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "neobank_users_registered_total",
		Help: "Total number of registered users",
	},
)

func init() {
	prometheus.MustRegister(TransactionsProcessed, TransactionLatency)
	prometheus.MustRegister(AccountsCreated, UsersRegistered)
}
