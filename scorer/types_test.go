package scorer_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

var _ = Describe("Types", func() {
	Describe("Scorecard", func() {
		var card scorer.Scorecard

		BeforeEach(func() {
			card = scorer.Scorecard{
				MissionAlignment:     scorer.Dimension{Score: 8, Explanation: "a"},
				TechnicalFeasibility: scorer.Dimension{Score: 7, Explanation: "b"},
				CompetitiveAdvantage: scorer.Dimension{Score: 6, Explanation: "c"},
				FinancialViability:   scorer.Dimension{Score: 9, Explanation: "d"},
				RiskCompliance:       scorer.Dimension{Score: 5, Explanation: "e"},
			}
		})

		It("should average the five dimension scores", func() {
			Expect(card.AverageScore()).To(Equal(7.0))
		})

		It("should keep fractional averages", func() {
			card.RiskCompliance.Score = 6
			Expect(card.AverageScore()).To(BeNumerically("~", 7.2, 1e-9))
		})

		It("should follow score changes", func() {
			card.MissionAlignment.Score = 3
			Expect(card.AverageScore()).To(Equal(6.0))
		})

		It("should expose dimensions by schema key", func() {
			dims := card.Dimensions()
			Expect(dims).To(HaveLen(scorer.DimensionCount))
			Expect(dims).To(HaveKeyWithValue(scorer.KeyMissionAlignment, card.MissionAlignment))
			Expect(dims).To(HaveKeyWithValue(scorer.KeyRiskCompliance, card.RiskCompliance))
			for _, key := range scorer.DimensionKeys() {
				Expect(dims).To(HaveKey(key))
			}
		})
	})

	Describe("ScoringError", func() {
		It("should match ErrScoringFailed", func() {
			err := &scorer.ScoringError{Raw: "{}", Err: errors.New("missing opportunity")}
			Expect(errors.Is(err, scorer.ErrScoringFailed)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("missing opportunity"))
		})

		It("should unwrap to the underlying cause", func() {
			cause := errors.New("connection reset")
			err := fmt.Errorf("record UC1: %w", &scorer.ScoringError{Err: cause})
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(errors.Is(err, scorer.ErrScoringFailed)).To(BeTrue())
		})

		It("should expose the raw response through wrapping", func() {
			err := fmt.Errorf("wrapped: %w", &scorer.ScoringError{Raw: "not json", Err: errors.New("bad")})
			Expect(scorer.RawResponse(err)).To(Equal("not json"))
		})

		It("should return an empty raw response for other errors", func() {
			Expect(scorer.RawResponse(errors.New("other"))).To(BeEmpty())
			Expect(scorer.RawResponse(nil)).To(BeEmpty())
		})
	})
})
