package executor

import "github.com/spacemeshos/go-pollvm/metrics"

const subsystem = "executor"

var (
	submitted = metrics.NewCounter(
		"submitted",
		subsystem,
		"number of submitted transactions by status",
		[]string{"status"},
	)
	successCount  = submitted.WithLabelValues("success")
	failureCount  = submitted.WithLabelValues("failure")
	rejectedCount = submitted.WithLabelValues("rejected")

	currentLayer = metrics.NewGauge(
		"layer",
		subsystem,
		"last applied layer",
		[]string{},
	).WithLabelValues()
)
