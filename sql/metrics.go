package sql

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-pollvm/metrics"
)

const namespace = "database"

func newQueryLatency() *prometheus.HistogramVec {
	return queryDuration
}

// QueryDuration in nanoseconds.
var queryDuration = metrics.NewHistogramWithBuckets(
	"query_duration",
	namespace,
	"Duration of the query in nanoseconds",
	[]string{"query"},
	prometheus.ExponentialBuckets(100_000, 2, 20),
)

var connWaitLatency = metrics.NewSimpleHistogram(
	"conn_wait_latency",
	namespace,
	"Latency of waiting for a connection from the pool, in seconds",
	prometheus.ExponentialBuckets(0.00001, 2, 20),
)
