package agent

import "github.com/prometheus/client_golang/prometheus"

// Prometheus collection metrics.
var (
	cyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "staffmon_cycles_total",
			Help: "Total number of completed collection cycles.",
		},
	)
	deliveryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffmon_delivery_failures_total",
			Help: "Snapshots that could not be delivered, by reason.",
		},
		[]string{"reason"},
	)
	persistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffmon_persist_failures_total",
			Help: "Snapshots that could not be written locally, by target.",
		},
		[]string{"target"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "staffmon_cycle_duration_seconds",
			Help:    "Time spent assembling, persisting and delivering one snapshot.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal)
	prometheus.MustRegister(deliveryFailuresTotal)
	prometheus.MustRegister(persistFailuresTotal)
	prometheus.MustRegister(cycleDuration)
}
