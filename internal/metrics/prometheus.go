package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caira_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caira_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	RetrievedDocs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caira_retrieved_docs_count",
			Help:    "Number of documents retrieved per query",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	HistoricalMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caira_historical_matches_count",
			Help:    "Number of historical incident types matched per query",
			Buckets: []float64{0, 1, 2, 3, 5},
		},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caira_confidence_score",
			Help:    "Response confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caira_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	GenerationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caira_generation_failures_total",
			Help: "Total answer generation failures",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caira_cache_hits_total",
			Help: "Total response cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caira_cache_misses_total",
			Help: "Total response cache misses",
		},
	)

	UserSatisfaction = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caira_feedback_total",
			Help: "User feedback votes",
		},
		[]string{"helpful"},
	)

	StatusFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caira_status_fetches_total",
			Help: "External status page fetches",
		},
		[]string{"outcome"},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(RetrievedDocs)
	prometheus.MustRegister(HistoricalMatches)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(GenerationFailures)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(UserSatisfaction)
	prometheus.MustRegister(StatusFetches)
}

func RecordRetrievedDocs(n int) {
	RetrievedDocs.Observe(float64(n))
}

func RecordHistoricalMatches(n int) {
	HistoricalMatches.Observe(float64(n))
}

func RecordGenerationFailure() {
	GenerationFailures.Inc()
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
