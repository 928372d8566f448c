package scorer_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sashabaranov/go-openai"

	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

var _ = Describe("Metrics", func() {
	var (
		reg     *prometheus.Registry
		metrics *scorer.MetricsRecorder
		client  *mockAPIClient
		s       *scorer.OpenAIScorer
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		metrics = scorer.NewMetricsRecorder(reg)
		client = &mockAPIClient{}

		var err error
		s, err = scorer.NewWithClient(client, scorer.NewDefaultConfig("test-key").WithMetrics(metrics))
		Expect(err).ToNot(HaveOccurred())
	})

	It("should record successful calls, tokens and scores", func() {
		client.respondWith(validAnalysis)
		_, err := s.Evaluate(context.Background(), "desc")
		Expect(err).ToNot(HaveOccurred())

		Expect(metricValue(reg, "opportunity_scorer_requests_total",
			map[string]string{"provider": "openai", "status": "success"})).To(Equal(1.0))
		Expect(metricValue(reg, "opportunity_scorer_api_call_duration_seconds", nil)).To(Equal(1.0))
		Expect(metricValue(reg, "opportunity_scorer_api_tokens_used_total",
			map[string]string{"type": "total"})).To(Equal(600.0))
		Expect(metricValue(reg, "opportunity_scorer_score_distribution", nil)).To(Equal(float64(scorer.DimensionCount)))
	})

	It("should classify API errors", func() {
		client.err = &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}
		_, err := s.Evaluate(context.Background(), "desc")
		Expect(err).To(HaveOccurred())

		Expect(metricValue(reg, "opportunity_scorer_requests_total",
			map[string]string{"status": "error"})).To(Equal(1.0))
		Expect(metricValue(reg, "opportunity_scorer_errors_total",
			map[string]string{"error_type": "rate_limit"})).To(Equal(1.0))
	})

	It("should count malformed responses", func() {
		client.respondWith("not json")
		_, err := s.Evaluate(context.Background(), "desc")
		Expect(errors.Is(err, scorer.ErrScoringFailed)).To(BeTrue())

		Expect(metricValue(reg, "opportunity_scorer_errors_total",
			map[string]string{"error_type": "invalid_response"})).To(Equal(1.0))
	})

	It("should be safe to use a nil recorder", func() {
		var nilRecorder *scorer.MetricsRecorder
		Expect(func() {
			nilRecorder.RecordAPICall("openai", "success", 1)
			nilRecorder.RecordError("unknown")
			nilRecorder.RecordScorecard(&scorer.Scorecard{})
			nilRecorder.RecordCircuitBreakerState("openai-api", 2)
			nilRecorder.RecordCircuitBreakerTrip("openai-api")
		}).ToNot(Panic())
	})

	It("should refuse a second recorder on the same registry", func() {
		Expect(func() { scorer.NewMetricsRecorder(reg) }).To(Panic())
	})
})
