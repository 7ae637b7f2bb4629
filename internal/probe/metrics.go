package probe

import "github.com/prometheus/client_golang/prometheus"

var (
	probeAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "servd",
			Subsystem: "probe",
			Name:      "attempts_total",
			Help:      "Total number of readiness probe attempts",
		},
	)

	probeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "servd",
			Subsystem: "probe",
			Name:      "duration_seconds",
			Help:      "Duration of individual readiness probe requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(probeAttemptsTotal, probeDuration)
}
