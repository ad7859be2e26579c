package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spectra_xcm",
		Name:      "requests_total",
		Help:      "Simulation requests by procedure and result code",
	}, []string{"procedure", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spectra_xcm",
		Name:      "request_duration_seconds",
		Help:      "Simulation latency including every chain query",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"procedure"})

	simulationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spectra_xcm",
		Name:      "simulation_failures_total",
		Help:      "Failed simulations by error kind and leg",
	}, []string{"kind", "leg"})
)
