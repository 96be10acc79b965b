package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeOpsTotal, storeOpLatencyMs) }

var (
	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_store_ops_total",
			Help: "Blob store operations by backend, op and result.",
		},
		[]string{"backend", "op", "result"}, // e.g., backend="redis", op="get", result="miss"
	)

	storeOpLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blob_store_op_latency_ms",
			Help:    "Blob store operation latency in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"backend", "op"},
	)
)

func ObserveStoreOp(backend, op, result string, latencyMs int64) {
	storeOpsTotal.WithLabelValues(norm(backend), norm(op), norm(result)).Inc()
	storeOpLatencyMs.WithLabelValues(norm(backend), norm(op)).Observe(float64(latencyMs))
}
