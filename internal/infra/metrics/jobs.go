package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		jobsSubmittedTotal,
		jobsCompletedTotal,
		jobPollsTotal,
		cuesTranslatedTotal,
		batchSize,
		retentionDeletedTotal,
	)
}

var (
	jobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translate_jobs_submitted_total",
			Help: "Translate job submissions, labeled by result.",
		},
		[]string{"result"}, // 'created', 'empty_subtitle', 'error', 'rate_limited'
	)

	jobsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "translate_jobs_completed_total",
			Help: "Jobs that reached the completed state during a poll.",
		},
	)

	jobPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translate_job_polls_total",
			Help: "Poll invocations, labeled by result.",
		},
		[]string{"result"}, // 'processing', 'completed', 'not_found', 'error'
	)

	cuesTranslatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translate_cues_total",
			Help: "Cue translation attempts, labeled by status.",
		},
		[]string{"status"}, // 'translated', 'failed'
	)

	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translate_batch_size",
			Help:    "Number of cues claimed per poll.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 50, 100},
		},
	)

	retentionDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "translate_jobs_expired_total",
			Help: "Job records removed by the retention sweeper.",
		},
	)
)

func IncJobSubmitted(result string) {
	jobsSubmittedTotal.WithLabelValues(norm(result)).Inc()
}

func IncJobCompleted() { jobsCompletedTotal.Inc() }

func IncJobPoll(result string) {
	jobPollsTotal.WithLabelValues(norm(result)).Inc()
}

func IncCue(status string) {
	cuesTranslatedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveBatch(n int) { batchSize.Observe(float64(n)) }

func AddExpired(n int) { retentionDeletedTotal.Add(float64(n)) }
