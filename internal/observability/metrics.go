package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// nowcast pipeline.
type Metrics struct {
	CyclesTotal     prometheus.Counter
	CycleErrors     prometheus.Counter
	PipelineRunning prometheus.Gauge
	LastCycleUnix   prometheus.Gauge

	CycleDuration   prometheus.Histogram
	ObjectsPerCycle prometheus.Histogram

	// Detection and tracking metrics.
	ObjectsDetected    prometheus.Counter
	ObjectsMatched     prometheus.Counter
	ObjectsNew         prometheus.Counter
	TracksDropped      prometheus.Counter
	BoundaryCandidates prometheus.Counter
	ImpactHitsTotal    prometheus.Counter

	// METAR ingest metrics.
	MetarFetches *prometheus.CounterVec // labels: outcome={success,error}
	MetarCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "cycles_total",
			Help:      "Total analysis cycles attempted.",
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "cycle_errors_total",
			Help:      "Total analysis cycles that failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_nowcast",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastCycleUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_nowcast",
			Name:      "last_cycle_unix",
			Help:      "Unix timestamp of the last successful cycle.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_nowcast",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete detect-track-forecast cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ObjectsPerCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_nowcast",
			Name:      "objects_per_cycle",
			Help:      "Number of storm objects detected per cycle.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		ObjectsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "objects_detected_total",
			Help:      "Total storm objects detected across all cycles.",
		}),
		ObjectsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "objects_matched_total",
			Help:      "Detections that matched a previous-cycle track.",
		}),
		ObjectsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "objects_new_total",
			Help:      "Detections that minted a new track ID.",
		}),
		TracksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "tracks_dropped_total",
			Help:      "Previous-cycle tracks with no matching detection.",
		}),
		BoundaryCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "boundary_candidates_total",
			Help:      "Boundary candidates emitted across all cycles.",
		}),
		ImpactHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "impact_hits_total",
			Help:      "Impact hits emitted across all cycles.",
		}),
		MetarFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "metar_fetches_total",
			Help:      "METAR cache fetches by outcome.",
		}, []string{"outcome"}),
		MetarCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_nowcast",
			Name:      "metar_cache_total",
			Help:      "METAR snapshot cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleErrors,
		m.PipelineRunning,
		m.LastCycleUnix,
		m.CycleDuration,
		m.ObjectsPerCycle,
		m.ObjectsDetected,
		m.ObjectsMatched,
		m.ObjectsNew,
		m.TracksDropped,
		m.BoundaryCandidates,
		m.ImpactHitsTotal,
		m.MetarFetches,
		m.MetarCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CyclesTotal:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "cycles_total"}),
		CycleErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "cycle_errors_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_nowcast", Name: "pipeline_running"}),
		LastCycleUnix:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_nowcast", Name: "last_cycle_unix"}),
		CycleDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_nowcast", Name: "cycle_duration_seconds"}),
		ObjectsPerCycle:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_nowcast", Name: "objects_per_cycle"}),
		ObjectsDetected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "objects_detected_total"}),
		ObjectsMatched:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "objects_matched_total"}),
		ObjectsNew:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "objects_new_total"}),
		TracksDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "tracks_dropped_total"}),
		BoundaryCandidates: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "boundary_candidates_total"}),
		ImpactHitsTotal:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "impact_hits_total"}),
		MetarFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "metar_fetches_total"}, []string{"outcome"}),
		MetarCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_nowcast", Name: "metar_cache_total"}, []string{"result"}),
	}
}
