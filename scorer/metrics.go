package scorer

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// MetricsRecorder provides methods to record scorer metrics. A nil recorder
// is valid and records nothing.
type MetricsRecorder struct {
	apiCallDuration     *prometheus.HistogramVec
	requestsTotal       *prometheus.CounterVec
	errorsTotal         *prometheus.CounterVec
	tokensUsed          *prometheus.CounterVec
	scoreDistribution   *prometheus.HistogramVec
	circuitBreakerState *prometheus.GaugeVec
	circuitBreakerTrips *prometheus.CounterVec
}

// NewMetricsRecorder creates a recorder whose collectors are registered on reg
func NewMetricsRecorder(reg prometheus.Registerer) *MetricsRecorder {
	factory := promauto.With(reg)

	return &MetricsRecorder{
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opportunity_scorer_api_call_duration_seconds",
				Help:    "Duration of scoring calls to the model provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider", "status"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opportunity_scorer_requests_total",
				Help: "Total number of scoring calls",
			},
			[]string{"provider", "status"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opportunity_scorer_errors_total",
				Help: "Total number of scoring errors by type",
			},
			[]string{"error_type"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opportunity_scorer_api_tokens_used_total",
				Help: "Total number of tokens used in scoring calls",
			},
			[]string{"type"}, // prompt, completion, total
		),
		scoreDistribution: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opportunity_scorer_score_distribution",
				Help:    "Distribution of dimension scores",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 25, 50, 75, 100},
			},
			[]string{"dimension"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "opportunity_scorer_circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		circuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opportunity_scorer_circuit_breaker_trips_total",
				Help: "Total number of circuit breaker trips",
			},
			[]string{"name"},
		),
	}
}

// RecordAPICall records one provider call and its duration
func (m *MetricsRecorder) RecordAPICall(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider, status).Inc()
	m.apiCallDuration.WithLabelValues(provider, status).Observe(seconds)
}

// RecordError records an error
func (m *MetricsRecorder) RecordError(errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordScorecard records token usage and the five scores of a scorecard
func (m *MetricsRecorder) RecordScorecard(card *Scorecard) {
	if m == nil || card == nil {
		return
	}
	m.tokensUsed.WithLabelValues("prompt").Add(float64(card.Usage.PromptTokens))
	m.tokensUsed.WithLabelValues("completion").Add(float64(card.Usage.CompletionTokens))
	m.tokensUsed.WithLabelValues("total").Add(float64(card.Usage.TotalTokens))
	for key, dim := range card.Dimensions() {
		m.scoreDistribution.WithLabelValues(key).Observe(dim.Score)
	}
}

// RecordCircuitBreakerState records circuit breaker state
func (m *MetricsRecorder) RecordCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *MetricsRecorder) RecordCircuitBreakerTrip(name string) {
	if m == nil {
		return
	}
	m.circuitBreakerTrips.WithLabelValues(name).Inc()
}

// classifyError returns error type for metrics
func classifyError(err error) string {
	if err == nil {
		return "none"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return "rate_limit"
		case apiErr.HTTPStatusCode >= 500:
			return "server_error"
		case apiErr.HTTPStatusCode >= 400:
			return "client_error"
		default:
			return "api_error"
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	if errors.Is(err, gobreaker.ErrOpenState) {
		return "circuit_open"
	}

	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_half_open"
	}

	return "unknown"
}
