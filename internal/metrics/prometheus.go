package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Slot outcomes reported by the composer.
const (
	OutcomeSelected       = "selected"
	OutcomeRandomFallback = "random_fallback"
	OutcomeNone           = "none"
)

var (
	// Composer
	PlansComposed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealrec_plans_composed_total",
			Help: "Total number of meal plans composed",
		},
	)

	PlanSlotOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealrec_plan_slot_outcomes_total",
			Help: "Meal plan slot outcomes by meal type",
		},
		[]string{"meal_type", "outcome"}, // outcome: selected, random_fallback, none
	)

	// Rank pipeline
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mealrec_rank_duration_seconds",
			Help:    "Duration of candidate rank calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mealrec_rank_results",
			Help:    "Number of items returned per rank call",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	PredictorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealrec_predictor_failures_total",
			Help: "Predictions that failed and excluded their item",
		},
	)

	// Filter extraction
	ExtractorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealrec_extractor_failures_total",
			Help: "Filter extractions that failed and degraded to an empty filter",
		},
	)

	ExtractorCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealrec_extractor_cache_hits_total",
			Help: "Filter extractions served from the cache",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mealrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Bot
	BotUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealrec_bot_updates_total",
			Help: "Telegram updates handled by command",
		},
		[]string{"command"},
	)
)
