package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Tile pipeline metrics.
	TilesParsed           prometheus.Counter
	TileParseErrors       prometheus.Counter
	BatchesProduced       prometheus.Counter
	BatchAssemblyDuration prometheus.Histogram
	PipelineRunning       prometheus.Gauge

	// Reallocation metrics.
	ReallocationRuns     prometheus.Counter
	TransferEvents       prometheus.Counter
	ReallocationDuration prometheus.Histogram
	PlanPublishErrors    prometheus.Counter

	// Prediction metrics.
	PredictRequests  *prometheus.CounterVec // labels: outcome={success,error,disabled}
	PredictDuration  prometheus.Histogram
	PredictorEnabled prometheus.Gauge

	// Active-fire feed metrics.
	FirmsRequests    *prometheus.CounterVec // labels: outcome={success,error}
	FirmsCache       *prometheus.CounterVec // labels: result={hit,miss}
	FirmsAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "tiles_parsed_total",
			Help:      "Total tile records parsed into samples.",
		}),
		TileParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "tile_parse_errors_total",
			Help:      "Total malformed tile records; any such record fails the dataset read.",
		}),
		BatchesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "batches_produced_total",
			Help:      "Total sample batches assembled for model consumption.",
		}),
		BatchAssemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire_etl",
			Name:      "batch_assembly_duration_seconds",
			Help:      "Time to fill one batch from parsed samples.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire_etl",
			Name:      "pipeline_running",
			Help:      "1 while a dataset epoch is being produced, 0 otherwise.",
		}),
		ReallocationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "reallocation_runs_total",
			Help:      "Total resource reallocation runs.",
		}),
		TransferEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "transfer_events_total",
			Help:      "Total transfer events emitted across all plans.",
		}),
		ReallocationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire_etl",
			Name:      "reallocation_duration_seconds",
			Help:      "Duration of a complete reallocation run.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		PlanPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "plan_publish_errors_total",
			Help:      "Total failures publishing transfer plans to the sink topic.",
		}),
		PredictRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "predict_requests_total",
			Help:      "Spread prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire_etl",
			Name:      "predict_duration_seconds",
			Help:      "Remote model inference duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PredictorEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire_etl",
			Name:      "predictor_enabled",
			Help:      "1 when a spread predictor is configured, 0 otherwise.",
		}),
		FirmsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "firms_requests_total",
			Help:      "NASA FIRMS API requests by outcome.",
		}, []string{"outcome"}),
		FirmsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "firms_cache_total",
			Help:      "Active-fire cache lookups by result.",
		}, []string{"result"}),
		FirmsAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire_etl",
			Name:      "firms_api_duration_seconds",
			Help:      "NASA FIRMS API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.TilesParsed,
		m.TileParseErrors,
		m.BatchesProduced,
		m.BatchAssemblyDuration,
		m.PipelineRunning,
		m.ReallocationRuns,
		m.TransferEvents,
		m.ReallocationDuration,
		m.PlanPublishErrors,
		m.PredictRequests,
		m.PredictDuration,
		m.PredictorEnabled,
		m.FirmsRequests,
		m.FirmsCache,
		m.FirmsAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		TilesParsed:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "tiles_parsed_total"}),
		TileParseErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "tile_parse_errors_total"}),
		BatchesProduced:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "batches_produced_total"}),
		BatchAssemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wildfire_etl", Name: "batch_assembly_duration_seconds"}),
		PipelineRunning:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wildfire_etl", Name: "pipeline_running"}),
		ReallocationRuns:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "reallocation_runs_total"}),
		TransferEvents:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "transfer_events_total"}),
		ReallocationDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wildfire_etl", Name: "reallocation_duration_seconds"}),
		PlanPublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "plan_publish_errors_total"}),
		PredictRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "predict_requests_total"}, []string{"outcome"}),
		PredictDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wildfire_etl", Name: "predict_duration_seconds"}),
		PredictorEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wildfire_etl", Name: "predictor_enabled"}),
		FirmsRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "firms_requests_total"}, []string{"outcome"}),
		FirmsCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "firms_cache_total"}, []string{"result"}),
		FirmsAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wildfire_etl", Name: "firms_api_duration_seconds"}),
	}
}
