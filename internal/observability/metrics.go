package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// matching service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Matching metrics.
	MatchRuns        prometheus.Counter
	MatchDuration    prometheus.Histogram
	CandidatesScored prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,fallback}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeLimiterWait prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guard_match",
			Name:      "messages_consumed_total",
			Help:      "Total coverage requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guard_match",
			Name:      "messages_produced_total",
			Help:      "Total ranked assignments written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guard_match",
			Name:      "transform_errors_total",
			Help:      "Total coverage requests that failed to parse or rank.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "guard_match",
			Name:      "pipeline_running",
			Help:      "1 when the matching pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guard_match",
			Name:      "batch_size",
			Help:      "Number of coverage requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guard_match",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-rank-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guard_match",
			Name:      "match_runs_total",
			Help:      "Total completed matching runs.",
		}),
		MatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guard_match",
			Name:      "match_duration_seconds",
			Help:      "Duration of one matching run across all candidates.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 15, 60},
		}),
		CandidatesScored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guard_match",
			Name:      "candidates_scored",
			Help:      "Number of candidates scored per matching run.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard_match",
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard_match",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guard_match",
			Name:      "geocode_api_duration_seconds",
			Help:      "Upstream geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		GeocodeLimiterWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guard_match",
			Name:      "geocode_limiter_wait_seconds",
			Help:      "Time spent waiting for a rate limiter turn.",
			Buckets:   []float64{0.001, 0.1, 0.5, 1.1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.MatchRuns,
		m.MatchDuration,
		m.CandidatesScored,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeLimiterWait,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "guard_match", Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "guard_match", Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "guard_match", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "guard_match", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "guard_match", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "guard_match", Name: "batch_processing_duration_seconds"}),
		MatchRuns:               prometheus.NewCounter(prometheus.CounterOpts{Namespace: "guard_match", Name: "match_runs_total"}),
		MatchDuration:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "guard_match", Name: "match_duration_seconds"}),
		CandidatesScored:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "guard_match", Name: "candidates_scored"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "guard_match", Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "guard_match", Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "guard_match", Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeLimiterWait:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "guard_match", Name: "geocode_limiter_wait_seconds"}),
	}
}
