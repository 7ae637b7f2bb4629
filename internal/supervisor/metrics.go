package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	launchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servd",
			Subsystem: "supervisor",
			Name:      "launches_total",
			Help:      "Total number of worker launches",
		},
		[]string{"backend"},
	)

	startupFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servd",
			Subsystem: "supervisor",
			Name:      "startup_failures_total",
			Help:      "Workers that exited before becoming ready",
		},
		[]string{"backend"},
	)

	workerUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "servd",
			Subsystem: "supervisor",
			Name:      "worker_up",
			Help:      "Whether a ready worker is currently running (0 or 1)",
		},
	)
)

func init() {
	prometheus.MustRegister(launchesTotal, startupFailuresTotal, workerUp)
}
