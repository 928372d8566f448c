package results_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JohnPlummer/opportunity-scorer/results"
	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

func sampleCard() *scorer.Scorecard {
	return &scorer.Scorecard{
		Description:          "Chatbot for benefits questions Answers and referrals",
		MissionAlignment:     scorer.Dimension{Score: 8, Explanation: "Veteran facing service"},
		TechnicalFeasibility: scorer.Dimension{Score: 7, Explanation: "Standard LLM stack"},
		CompetitiveAdvantage: scorer.Dimension{Score: 6, Explanation: "Some prior work"},
		FinancialViability:   scorer.Dimension{Score: 9, Explanation: "Large program"},
		RiskCompliance:       scorer.Dimension{Score: 5, Explanation: "PII handling"},
		Usage:                scorer.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		Timestamp:            time.Date(2024, 9, 1, 12, 30, 0, 0, time.UTC),
		Model:                "gpt-4o-2024-08-06",
	}
}

var _ = Describe("Store", func() {
	var (
		dir   string
		store *results.Store
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "results")
		store = results.New(dir)
	})

	Describe("Write", func() {
		It("should create the directory and write <id>.json", func() {
			path, err := store.Write("UC1", sampleCard())
			Expect(err).ToNot(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(dir, "UC1.json")))
			Expect(path).To(BeAnExistingFile())
		})

		It("should write the documented layout", func() {
			path, err := store.Write("UC1", sampleCard())
			Expect(err).ToNot(HaveOccurred())

			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("\n  \"scores\": {"))

			var doc map[string]any
			Expect(json.Unmarshal(data, &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("description", "Chatbot for benefits questions Answers and referrals"))

			scores := doc["scores"].(map[string]any)
			Expect(scores).To(HaveKey("mission_alignment"))
			Expect(scores).To(HaveKey("technical_feasibility"))
			Expect(scores).To(HaveKey("competitive_advantage"))
			Expect(scores).To(HaveKey("financial_viability"))
			Expect(scores).To(HaveKey("risk_compliance"))
			Expect(scores).To(HaveKeyWithValue("average_score", 7.0))
			Expect(scores["risk_compliance"]).To(Equal(map[string]any{"score": 5.0, "explanation": "PII handling"}))

			Expect(doc["usage"]).To(Equal(map[string]any{
				"prompt_tokens": 100.0, "completion_tokens": 50.0, "total_tokens": 150.0,
			}))
			Expect(doc["metadata"]).To(Equal(map[string]any{
				"timestamp": "2024-09-01T12:30:00Z", "model": "gpt-4o-2024-08-06",
			}))
		})

		It("should overwrite an existing result", func() {
			_, err := store.Write("UC1", sampleCard())
			Expect(err).ToNot(HaveOccurred())

			card := sampleCard()
			card.MissionAlignment.Score = 3
			_, err = store.Write("UC1", card)
			Expect(err).ToNot(HaveOccurred())

			doc, err := store.Read("UC1")
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Scores.MissionAlignment.Score).To(Equal(3.0))
			Expect(doc.Scores.AverageScore).To(Equal(6.0))

			entries, err := os.ReadDir(dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("should keep ids with path separators inside the directory", func() {
			path, err := store.Write("../UC/1", sampleCard())
			Expect(err).ToNot(HaveOccurred())
			Expect(filepath.Dir(path)).To(Equal(dir))
		})

		It("should fail with ErrPersistenceFailed when the directory cannot be created", func() {
			blocker := filepath.Join(GinkgoT().TempDir(), "file")
			Expect(os.WriteFile(blocker, []byte("x"), 0o644)).To(Succeed())

			_, err := results.New(filepath.Join(blocker, "results")).Write("UC1", sampleCard())
			Expect(errors.Is(err, results.ErrPersistenceFailed)).To(BeTrue())
		})

		It("should reject an empty id", func() {
			_, err := store.Write(" ", sampleCard())
			Expect(errors.Is(err, results.ErrPersistenceFailed)).To(BeTrue())
		})

		It("should reject a nil scorecard", func() {
			_, err := store.Write("UC1", nil)
			Expect(errors.Is(err, results.ErrPersistenceFailed)).To(BeTrue())
		})
	})

	Describe("Read", func() {
		It("should round-trip the scorecard", func() {
			card := sampleCard()
			_, err := store.Write("UC1", card)
			Expect(err).ToNot(HaveOccurred())

			doc, err := store.Read("UC1")
			Expect(err).ToNot(HaveOccurred())
			back := doc.Scorecard()
			Expect(back.Timestamp.Equal(card.Timestamp)).To(BeTrue())
			back.Timestamp = card.Timestamp
			Expect(back).To(Equal(card))
		})

		It("should report a missing result", func() {
			_, err := store.Read("UC404")
			Expect(errors.Is(err, results.ErrNotFound)).To(BeTrue())
		})

		It("should reject a document whose average disagrees with its scores", func() {
			_, err := store.Write("UC1", sampleCard())
			Expect(err).ToNot(HaveOccurred())

			path := store.Path("UC1")
			var doc results.Document
			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(json.Unmarshal(data, &doc)).To(Succeed())
			doc.Scores.AverageScore = 9.5
			data, err = json.Marshal(doc)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(path, data, 0o644)).To(Succeed())

			_, err = store.Read("UC1")
			Expect(errors.Is(err, results.ErrInconsistentAverage)).To(BeTrue())
		})
	})

	Describe("New", func() {
		It("should default the directory", func() {
			Expect(results.New("").Dir()).To(Equal(results.DefaultDir))
		})
	})

	DescribeTable("FileName",
		func(id, want string) {
			Expect(results.FileName(id)).To(Equal(want))
		},
		Entry("plain id", "UC1", "UC1.json"),
		Entry("surrounding space", " UC-2 ", "UC-2.json"),
		Entry("path separators", "a/b\\c", "a_b_c.json"),
		Entry("dot dot", "..", "__.json"),
		Entry("spaces inside", "VA 2024 01", "VA_2024_01.json"),
	)
})
