package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	scansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapsplit_scans_total",
		Help: "Completed scans by extraction method.",
	}, []string{"method"})

	settlesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapsplit_settles_total",
		Help: "Settlement computations served.",
	})

	sharesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapsplit_shares_total",
		Help: "Share store operations by kind.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(scansTotal, settlesTotal, sharesTotal)
}
