package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk
// pipeline.
type Metrics struct {
	TicksTotal      prometheus.Counter
	TickDuration    prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Ingest metrics.
	IngestFetches   *prometheus.CounterVec // labels: outcome={ok,synthetic}
	IngestDuration  prometheus.Histogram
	SnapshotsStored *prometheus.CounterVec // labels: sink={kafka,sqlite}, outcome={ok,error}

	// Forecast metrics.
	TrainingRuns      *prometheus.CounterVec // labels: outcome={success,failure}
	ForecastsProduced *prometheus.CounterVec // labels: source={trained,fallback}
	ModelReady        prometheus.Gauge
	HistorySize       prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TicksTotal,
		m.TickDuration,
		m.PipelineRunning,
		m.IngestFetches,
		m.IngestDuration,
		m.SnapshotsStored,
		m.TrainingRuns,
		m.ForecastsProduced,
		m.ModelReady,
		m.HistorySize,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain_risk",
			Name:      "ticks_total",
			Help:      "Total ingest-derive-aggregate cycles executed.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "terrain_risk",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a complete pipeline tick.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain_risk",
			Name:      "pipeline_running",
			Help:      "1 when the periodic runner is active, 0 when stopped.",
		}),
		IngestFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrain_risk",
			Name:      "ingest_fetches_total",
			Help:      "Observation fetches by outcome; synthetic means the fallback generator substituted the sample.",
		}, []string{"outcome"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "terrain_risk",
			Name:      "ingest_fetch_duration_seconds",
			Help:      "Upstream weather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SnapshotsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrain_risk",
			Name:      "snapshots_stored_total",
			Help:      "Snapshot deliveries to optional sinks by sink and outcome.",
		}, []string{"sink", "outcome"}),
		TrainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrain_risk",
			Name:      "training_runs_total",
			Help:      "Forecast model training runs by outcome.",
		}, []string{"outcome"}),
		ForecastsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrain_risk",
			Name:      "forecasts_produced_total",
			Help:      "Forecasts by estimator source.",
		}, []string{"source"}),
		ModelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain_risk",
			Name:      "model_ready",
			Help:      "1 once the forecast model has completed training at least once.",
		}),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain_risk",
			Name:      "history_size",
			Help:      "Observations currently retained in the 24h window.",
		}),
	}
}
