package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_analysis_seconds",
		Help:    "Time spent on analysis tasks (load, classify, summarize, path).",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	AnalysisFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_analysis_failures_total",
		Help: "Total number of failed analysis runs by error code.",
	}, []string{"code"})

	GraphInputs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radar_graph_inputs_total",
		Help: "Number of source inputs in the current build graph.",
	})

	GraphOutputs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radar_graph_outputs_total",
		Help: "Number of emitted outputs in the current build graph.",
	})

	InitialBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radar_initial_bytes",
		Help: "Total size of eagerly loaded outputs in the current analysis.",
	})

	LazyBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radar_lazy_bytes",
		Help: "Total size of lazily loaded outputs in the current analysis.",
	})

	ReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_reloads_total",
		Help: "Total number of metafile reloads triggered by the watcher.",
	})

	ReloadsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_reloads_throttled_total",
		Help: "Total number of watcher reloads deferred by the reload limiter.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	SnapshotStoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_snapshot_store_seconds",
		Help:    "Latency of snapshot store operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)
