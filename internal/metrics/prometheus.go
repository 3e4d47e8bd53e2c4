package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legalease_question_duration_seconds",
			Help:    "Question handling duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"transport"},
	)

	QuestionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalease_question_total",
			Help: "Total number of questions handled",
		},
		[]string{"outcome"},
	)

	MatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalease_match_total",
			Help: "Catalogue match results",
		},
		[]string{"result"},
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "legalease_match_score",
			Help:    "Score of the selected record",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legalease_provider_duration_seconds",
			Help:    "Text-generation provider call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalease_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	StoreReadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalease_store_read_failures_total",
			Help: "Store reads that failed and were degraded",
		},
		[]string{"collection"},
	)

	CatalogueRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "legalease_catalogue_records",
			Help: "Number of records in the law catalogue at the last read",
		},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalease_notifications_total",
			Help: "Push notifications by delivery result",
		},
		[]string{"result"},
	)

	CaseUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalease_case_updates_total",
			Help: "Booking status updates",
		},
		[]string{"status", "counted"},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "legalease_circuit_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(QuestionDuration)
		prometheus.MustRegister(QuestionTotal)
		prometheus.MustRegister(MatchTotal)
		prometheus.MustRegister(MatchScore)
		prometheus.MustRegister(ProviderDuration)
		prometheus.MustRegister(LLMTokensUsed)
		prometheus.MustRegister(StoreReadFailures)
		prometheus.MustRegister(CatalogueRecords)
		prometheus.MustRegister(NotificationsSent)
		prometheus.MustRegister(CaseUpdates)
		prometheus.MustRegister(CircuitState)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
