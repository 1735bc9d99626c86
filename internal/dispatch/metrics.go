package dispatch

import "github.com/prometheus/client_golang/prometheus"

var dispatchFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "providerd",
		Subsystem: "dispatch",
		Name:      "failures_total",
		Help:      "Failed consumer registry calls",
	},
	[]string{"registry", "op"},
)

func init() {
	prometheus.MustRegister(dispatchFailures)
}
