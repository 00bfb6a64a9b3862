// Package metrics provides Prometheus instrumentation for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RunsTotal counts pipeline runs by outcome.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskboard",
			Name:      "runs_total",
			Help:      "Total pipeline runs by status.",
		},
		[]string{"status"},
	)

	// StageDuration observes the latency of each pipeline stage.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskboard",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// AccountsLoaded tracks the number of accounts in the last loaded export.
	AccountsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "riskboard", Name: "accounts_loaded",
		Help: "Accounts parsed from the last input file.",
	})

	// RowsFlattened tracks the number of device rows in the last run.
	RowsFlattened = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "riskboard", Name: "rows_flattened",
		Help: "Device rows produced by the last flatten stage.",
	})

	// GroupsRetained tracks how many groups survived minimum support, per dataset.
	GroupsRetained = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "riskboard",
			Name:      "groups_retained",
			Help:      "Groups kept after the minimum support filter.",
		},
		[]string{"dataset"},
	)
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		StageDuration,
		AccountsLoaded,
		RowsFlattened,
		GroupsRetained,
	)
}

// ObserveStage records how long a stage took, measured from start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
