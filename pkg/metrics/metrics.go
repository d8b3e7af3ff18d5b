// Package metrics holds the process-wide Prometheus collectors of vexec.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vexec"

const (
	OutcomeBound = "bound"
	OutcomeNoop  = "noop"
	OutcomeError = "error"
)

var (
	SlotResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_resolutions_total",
		Help:      "The total number of slot reference resolutions by outcome.",
	}, []string{"outcome"})

	ProjectedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projected_blocks_total",
		Help:      "The total number of blocks passed through projection operators.",
	})

	ScannedRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scanned_rows_total",
		Help:      "The total number of rows read from data files.",
	})

	QueriesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "The total number of queries by final state.",
	}, []string{"state"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Time spent executing queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	FragmentsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fragments_running",
		Help:      "The number of execution fragments currently running.",
	})
)
