package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ScreeningMetrics holds the Prometheus metrics exported by the engine:
// counters, histograms, and gauges built via promauto and registered
// once as a process-wide singleton.
type ScreeningMetrics struct {
	ScreeningsTotal        *prometheus.CounterVec
	MatchLayerTotal        *prometheus.CounterVec
	ScreeningDurationSeconds prometheus.Histogram
	IngestDurationSeconds    *prometheus.HistogramVec
	IngestMalformedRatio     prometheus.Gauge
	IndexEntityCount         prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metrics     *ScreeningMetrics
)

// GetScreeningMetrics returns the process-wide metrics singleton, lazily
// registering it with the default Prometheus registry on first use.
func GetScreeningMetrics() *ScreeningMetrics {
	metricsOnce.Do(func() {
		metrics = &ScreeningMetrics{
			ScreeningsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "screening_requests_total",
					Help: "Total number of screening requests by recommendation",
				},
				[]string{"recommendation"},
			),
			MatchLayerTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "screening_match_layer_total",
					Help: "Total number of match results by layer",
				},
				[]string{"layer"},
			),
			ScreeningDurationSeconds: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "screening_duration_seconds",
					Help:    "Duration of a single screening request",
					Buckets: prometheus.DefBuckets,
				},
			),
			IngestDurationSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "screening_ingest_duration_seconds",
					Help:    "Duration of an ingestion stage (fetch, parse, validate, index)",
					Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
				},
				[]string{"stage", "source"},
			),
			IngestMalformedRatio: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "screening_ingest_malformed_ratio",
					Help: "Most recent ingestion's malformed-entity ratio",
				},
			),
			IndexEntityCount: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "screening_index_entity_count",
					Help: "Number of entities in the currently published index",
				},
			),
		}
	})
	return metrics
}
