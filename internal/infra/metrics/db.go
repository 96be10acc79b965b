package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobStorePoolConns) }

var jobStorePoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "job_store_pg_pool_conns",
		Help: "Connections held by the postgres job store pool, by state.",
	},
	[]string{"state"}, // 'max', 'open', 'idle', 'acquired'
)

// SetJobStorePool publishes a pool snapshot. open counts idle, acquired and
// constructing connections.
func SetJobStorePool(max, open, idle, acquired int32) {
	jobStorePoolConns.WithLabelValues("max").Set(float64(max))
	jobStorePoolConns.WithLabelValues("open").Set(float64(open))
	jobStorePoolConns.WithLabelValues("idle").Set(float64(idle))
	jobStorePoolConns.WithLabelValues("acquired").Set(float64(acquired))
}
