package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mirror_source_fetch_duration_seconds",
		Help:    "Duration of source fetches",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"platform", "status"})

	SourceFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_source_fetch_total",
		Help: "Number of source fetches",
	}, []string{"platform", "status"})

	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mirror_analysis_duration_seconds",
		Help:    "Duration of complete analyses",
		Buckets: prometheus.DefBuckets,
	})

	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_analyses_total",
		Help: "Number of analyses by outcome",
	}, []string{"outcome"})

	ExpansionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_query_expansion_total",
		Help: "Query expansion attempts by outcome",
	}, []string{"outcome"})

	EnrichmentErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_enrichment_errors_total",
		Help: "Items whose derived metrics could not be computed",
	}, []string{"platform"})

	OverallScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mirror_overall_score",
		Help:    "Distribution of overall trending scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
)

// MustRegister registers all collectors
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SourceFetchDuration,
		SourceFetchTotal,
		AnalysisDuration,
		AnalysesTotal,
		ExpansionTotal,
		EnrichmentErrors,
		OverallScore,
	)
}

// ObserveSourceFetch records duration and status of one source fetch
func ObserveSourceFetch(platform string, start time.Time, err error) {
	if platform == "" {
		platform = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	SourceFetchDuration.WithLabelValues(platform, status).Observe(time.Since(start).Seconds())
	SourceFetchTotal.WithLabelValues(platform, status).Inc()
}

// ObserveAnalysis records an analysis and its outcome
func ObserveAnalysis(start time.Time, outcome string, score float64) {
	AnalysisDuration.Observe(time.Since(start).Seconds())
	AnalysesTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" || outcome == "partial" {
		OverallScore.Observe(score)
	}
}

// IncExpansion counts a query expansion attempt
func IncExpansion(outcome string) {
	ExpansionTotal.WithLabelValues(outcome).Inc()
}

// IncEnrichmentError counts an item that could not be enriched
func IncEnrichmentError(platform string) {
	EnrichmentErrors.WithLabelValues(platform).Inc()
}
