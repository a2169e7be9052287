package vm

import (
	"github.com/spacemeshos/go-pollvm/metrics"
)

const namespace = "vm"

var (
	transactionsPerBlock = metrics.NewSimpleHistogram(
		"transactions_per_block",
		namespace,
		"number of transactions in the applied batch",
		[]float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
	)
	txCount = metrics.NewCounter(
		"transactions",
		namespace,
		"number of applied transactions by outcome",
		[]string{"outcome"},
	)
	successfulTxs = txCount.WithLabelValues("success")
	failedTxs     = txCount.WithLabelValues("failure")
	skippedTxs    = txCount.WithLabelValues("skipped")

	blockDurationWait = metrics.NewSimpleHistogram(
		"block_duration_wait",
		namespace,
		"time spent waiting for the database transaction (seconds)",
		[]float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	)
	blockDurationTxs = metrics.NewSimpleHistogram(
		"block_duration_txs",
		namespace,
		"time spent applying transactions (seconds)",
		[]float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	)
	blockDurationPersist = metrics.NewSimpleHistogram(
		"block_duration_persist",
		namespace,
		"time spent persisting updated accounts (seconds)",
		[]float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	)
	writesPerBlock = metrics.NewSimpleHistogram(
		"account_writes_per_block",
		namespace,
		"number of accounts updated by the batch",
		[]float64{1, 2, 4, 8, 16, 32, 64, 128},
	)
)
