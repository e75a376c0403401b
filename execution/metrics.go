package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_blocks_admitted_total",
		Help: "Blocks admitted to the block manager.",
	}, []string{"table"})

	admissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_blocks_rejected_total",
		Help: "Blocks rejected at admission.",
	}, []string{"table", "reason"})

	evictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_blocks_evicted_total",
		Help: "Blocks evicted from the block manager.",
	}, []string{"table"})

	residentBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nebula_resident_bytes",
		Help: "Resident block bytes per table.",
	}, []string{"table"})

	residentBlocks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nebula_resident_blocks",
		Help: "Resident block count per table.",
	}, []string{"table"})
)
