package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	idAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sammy_unique_id_allocations_total",
		Help: "Unique ID allocations by result",
	}, []string{"result"})

	idAllocationDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sammy_unique_id_allocation_duration_ms",
		Help:    "Latency of unique ID allocation in milliseconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
	})

	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sammy_records_written_total",
		Help: "Records written by kind and write mode",
	}, []string{"kind", "mode"})
)
