package prune

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-pollvm/metrics"
)

const namespace = "prune"

var (
	pruneLatency = metrics.NewHistogramWithBuckets(
		"prune_seconds",
		namespace,
		"prune time in seconds",
		[]string{"step"},
		prometheus.ExponentialBuckets(0.01, 2, 10),
	)
	accountsLatency = pruneLatency.WithLabelValues("accounts")

	prunedAccounts = metrics.NewCounter(
		"pruned_accounts",
		namespace,
		"number of pruned account versions",
		[]string{},
	).WithLabelValues()
)
