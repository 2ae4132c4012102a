package enrichment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "semgraph"
	metricsSubsystem = "enrichment"
)

// Metrics instruments pipeline runs.
type Metrics struct {
	// FilesTotal counts extracted files by language and strategy.
	FilesTotal *prometheus.CounterVec

	// DiagnosticsTotal counts diagnostics by kind and severity.
	DiagnosticsTotal *prometheus.CounterVec

	// RelationsTotal counts enriched relations by importance level.
	RelationsTotal *prometheus.CounterVec

	// ExtractSeconds measures per-file extraction time by language.
	ExtractSeconds *prometheus.HistogramVec

	// RunSeconds measures whole runs.
	RunSeconds prometheus.Histogram

	// CacheRequests counts parse cache lookups by result (hit, miss).
	CacheRequests *prometheus.CounterVec
}

// NewMetrics creates the pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FilesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "files_total",
				Help:      "Files extracted by language and strategy",
			},
			[]string{"language", "strategy"},
		),
		DiagnosticsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "diagnostics_total",
				Help:      "Diagnostics recorded by kind and severity",
			},
			[]string{"kind", "severity"},
		),
		RelationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "relations_total",
				Help:      "Enriched relations by importance level",
			},
			[]string{"importance"},
		),
		ExtractSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "extract_duration_seconds",
				Help:      "Per-file extraction time in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"language"},
		),
		RunSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "run_duration_seconds",
				Help:      "Whole pipeline run time in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		CacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "cache_requests_total",
				Help:      "Parse cache lookups by result",
			},
			[]string{"result"},
		),
	}
}
