package linalg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gpytorch_linalg_solves_total",
		Help: "Total number of batched solves by method",
	}, []string{"method"})

	cgIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gpytorch_linalg_cg_iterations",
		Help:    "Conjugate gradient iterations per batch entry",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	cgNotConverged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gpytorch_linalg_cg_not_converged_total",
		Help: "Batch entries where conjugate gradients hit the iteration cap",
	})
)
