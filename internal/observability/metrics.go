package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// retrieval pipeline.
type Metrics struct {
	VolumesConsumed prometheus.Counter
	VolumesProduced prometheus.Counter
	RetrievalErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Retrieval metrics.
	RetrievalDuration *prometheus.HistogramVec // labels: retrieval={hsda,hdr,mesh}
	GatesClassified   *prometheus.CounterVec   // labels: class
	HailGates         prometheus.Counter

	// Sounding enrichment metrics.
	SoundingRequests *prometheus.CounterVec // labels: outcome={success,error}
	SoundingCache    *prometheus.CounterVec // labels: result={hit,miss}
	SoundingEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		VolumesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "volumes_consumed_total",
			Help:      "Total radar volumes read from the source topic.",
		}),
		VolumesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "volumes_produced_total",
			Help:      "Total enriched volumes written to the sink topic.",
		}),
		RetrievalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "retrieval_errors_total",
			Help:      "Total volumes skipped because a retrieval failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hail_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hail_etl",
			Name:      "batch_size",
			Help:      "Number of volume messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hail_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RetrievalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hail_etl",
			Name:      "retrieval_duration_seconds",
			Help:      "Per-retrieval computation duration over one volume.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"retrieval"}),
		GatesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "gates_classified_total",
			Help:      "Classified gates by winning class (including unclassified).",
		}, []string{"class"}),
		HailGates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "hail_gates_total",
			Help:      "Gates flagged hail by the classifier.",
		}),
		SoundingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "sounding_requests_total",
			Help:      "Sounding API requests by outcome.",
		}, []string{"outcome"}),
		SoundingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hail_etl",
			Name:      "sounding_cache_total",
			Help:      "Sounding cache lookups by result.",
		}, []string{"result"}),
		SoundingEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hail_etl",
			Name:      "sounding_enabled",
			Help:      "1 when sounding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.VolumesConsumed,
		m.VolumesProduced,
		m.RetrievalErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RetrievalDuration,
		m.GatesClassified,
		m.HailGates,
		m.SoundingRequests,
		m.SoundingCache,
		m.SoundingEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		VolumesConsumed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hail_etl", Name: "volumes_consumed_total"}),
		VolumesProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hail_etl", Name: "volumes_produced_total"}),
		RetrievalErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hail_etl", Name: "retrieval_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hail_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hail_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hail_etl", Name: "batch_processing_duration_seconds"}),
		RetrievalDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "hail_etl", Name: "retrieval_duration_seconds"}, []string{"retrieval"}),
		GatesClassified:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hail_etl", Name: "gates_classified_total"}, []string{"class"}),
		HailGates:               prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hail_etl", Name: "hail_gates_total"}),
		SoundingRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hail_etl", Name: "sounding_requests_total"}, []string{"outcome"}),
		SoundingCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hail_etl", Name: "sounding_cache_total"}, []string{"result"}),
		SoundingEnabled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hail_etl", Name: "sounding_enabled"}),
	}
}
