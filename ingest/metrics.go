package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	specsDone = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_specs_done_total",
		Help: "Work units completed.",
	}, []string{"table"})

	specsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_specs_failed_total",
		Help: "Work units failed.",
	}, []string{"table"})

	rowsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_rows_ingested_total",
		Help: "Rows appended to batches.",
	}, []string{"table"})

	rowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_rows_dropped_total",
		Help: "Rows dropped for per-row errors.",
	}, []string{"table"})

	rowsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nebula_rows_filtered_total",
		Help: "Rows rejected by the table filter expression.",
	}, []string{"table"})
)
