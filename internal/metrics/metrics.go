// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OperationDeposit = "deposit"
	OperationPayJob  = "pay_job"

	ReportBestProfession = "best_profession"
	ReportBestClients    = "best_clients"
)

// Transfers counts balance mutations by operation and outcome (the error kind,
// or "ok").
var Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "transfers_total",
	Help:      "Balance transfer attempts by operation and outcome.",
}, []string{"operation", "outcome"})

// TransferredAmount accumulates the money moved by successful transfers.
var TransferredAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "transferred_amount_total",
	Help:      "Sum of successfully transferred amounts.",
}, []string{"operation"})

var ReportRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "report_requests_total",
	Help:      "Report requests by report and cache result.",
}, []string{"report", "cache"})

var ReportRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledger",
	Name:      "report_retries_total",
	Help:      "Report queries retried after a transient store error.",
})
