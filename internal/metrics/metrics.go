// Package metrics exposes Prometheus collectors for the generation pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	jobsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_jobs_submitted_total",
		Help: "Total number of generation jobs accepted for processing.",
	})

	jobsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_jobs_finished_total",
		Help: "Total number of generation jobs that reached a terminal state, labeled by status.",
	}, []string{"status"})

	generationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "Wall time of the detached generation task from start to terminal write.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
)

// MustRegister registers all pipeline collectors exactly once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(jobsSubmittedTotal, jobsFinishedTotal, generationSeconds)
	})
}

// IncSubmitted counts an accepted submission.
func IncSubmitted() {
	jobsSubmittedTotal.Inc()
}

// ObserveFinished counts a terminal transition and its duration.
func ObserveFinished(status string, seconds float64) {
	jobsFinishedTotal.WithLabelValues(status).Inc()
	generationSeconds.Observe(seconds)
}
