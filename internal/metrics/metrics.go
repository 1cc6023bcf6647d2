// Package metrics provides Prometheus metrics for the marketing kit functions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks generation runs by flow and outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketingkit",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of generation runs by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	// RunDuration tracks end-to-end run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketingkit",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of generation runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"flow"},
	)

	// StageDuration tracks per-stage duration in seconds
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketingkit",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	// GraphicsPlatformTotal tracks per-platform graphics outcomes
	GraphicsPlatformTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketingkit",
			Subsystem: "graphics",
			Name:      "platform_total",
			Help:      "Total number of platform graphics attempts by outcome",
		},
		[]string{"platform", "status"},
	)

	// BrochuresTotal tracks brochure builds by status
	BrochuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketingkit",
			Subsystem: "brochure",
			Name:      "builds_total",
			Help:      "Total number of brochure builds by status",
		},
		[]string{"status"},
	)

	// DispatchesTotal tracks regeneration workflow dispatches by status
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketingkit",
			Subsystem: "dispatcher",
			Name:      "executions_total",
			Help:      "Total number of regeneration workflow executions started",
		},
		[]string{"status"},
	)
)

// ObserveStage records the time elapsed since start for stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
