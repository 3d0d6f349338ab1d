package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "runway_etl"

// Metrics holds the Prometheus collectors for the advisory pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Parsing metrics.
	AdvisoriesParsed    *prometheus.CounterVec // labels: outcome={matched,unmatched,invalid}
	RuleMatches         *prometheus.CounterVec // labels: rule
	ParseConfidence     prometheus.Histogram
	ReciprocalConflicts prometheus.Counter

	// Split-broadcast pairing metrics.
	PairOutcomes    *prometheus.CounterVec // labels: result={merged,incomplete,unsplit}
	PairStoreErrors prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total advisories read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total runway configurations written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total advisories rejected at the input boundary.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		AdvisoriesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisories_parsed_total",
			Help:      "Advisories parsed by outcome.",
		}, []string{"outcome"}),
		RuleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Extraction rule hits by rule identifier.",
		}, []string{"rule"}),
		ParseConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_confidence",
			Help:      "Confidence of emitted runway configurations.",
			Buckets:   []float64{0, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),
		ReciprocalConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reciprocal_conflicts_total",
			Help:      "Configurations with reciprocal runway ends in simultaneous use.",
		}),
		PairOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_outcomes_total",
			Help:      "Split-broadcast reconciliation outcomes.",
		}, []string{"result"}),
		PairStoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_store_errors_total",
			Help:      "Pair store lookups or writes that failed.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.AdvisoriesParsed,
		m.RuleMatches,
		m.ParseConfidence,
		m.ReciprocalConflicts,
		m.PairOutcomes,
		m.PairStoreErrors,
	}
}
