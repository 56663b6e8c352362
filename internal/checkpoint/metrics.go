package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// fragmentsTotal counts every fragment accepted onto the buffer.
	fragmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_fragments_total",
		Help: "Total number of stream fragments buffered",
	})

	// consolidationsTotal counts terminal submissions by outcome:
	// "persisted", "failed" (backend rejected the write), or "empty"
	// (nothing buffered at consolidation time).
	consolidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamvault_consolidations_total",
		Help: "Total number of session consolidations by outcome",
	}, []string{"outcome"})

	// sessionsActive tracks how many sessions are currently buffered.
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamvault_sessions_active",
		Help: "Number of streaming sessions currently buffered in memory",
	})
)
