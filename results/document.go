package results

import (
	"fmt"
	"math"
	"time"

	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

// averageTolerance absorbs float rounding between the stored average and the
// one recomputed from the five stored scores
const averageTolerance = 1e-9

// Document is the on-disk layout of one result file
type Document struct {
	Description string       `json:"description"`
	Scores      Scores       `json:"scores"`
	Usage       scorer.Usage `json:"usage"`
	Metadata    Metadata     `json:"metadata"`
}

// Scores holds the five dimensions and their mean
type Scores struct {
	MissionAlignment     scorer.Dimension `json:"mission_alignment"`
	TechnicalFeasibility scorer.Dimension `json:"technical_feasibility"`
	CompetitiveAdvantage scorer.Dimension `json:"competitive_advantage"`
	FinancialViability   scorer.Dimension `json:"financial_viability"`
	RiskCompliance       scorer.Dimension `json:"risk_compliance"`
	AverageScore         float64          `json:"average_score"`
}

// Metadata records when and by which model the scorecard was produced.
// Timestamp is encoded as RFC 3339.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
}

// NewDocument lays out card for persistence, computing the average score
func NewDocument(card *scorer.Scorecard) *Document {
	return &Document{
		Description: card.Description,
		Scores: Scores{
			MissionAlignment:     card.MissionAlignment,
			TechnicalFeasibility: card.TechnicalFeasibility,
			CompetitiveAdvantage: card.CompetitiveAdvantage,
			FinancialViability:   card.FinancialViability,
			RiskCompliance:       card.RiskCompliance,
			AverageScore:         card.AverageScore(),
		},
		Usage: card.Usage,
		Metadata: Metadata{
			Timestamp: card.Timestamp,
			Model:     card.Model,
		},
	}
}

// Scorecard converts the document back into a scorecard
func (d *Document) Scorecard() *scorer.Scorecard {
	return &scorer.Scorecard{
		Description:          d.Description,
		MissionAlignment:     d.Scores.MissionAlignment,
		TechnicalFeasibility: d.Scores.TechnicalFeasibility,
		CompetitiveAdvantage: d.Scores.CompetitiveAdvantage,
		FinancialViability:   d.Scores.FinancialViability,
		RiskCompliance:       d.Scores.RiskCompliance,
		Usage:                d.Usage,
		Timestamp:            d.Metadata.Timestamp,
		Model:                d.Metadata.Model,
	}
}

// Validate checks that average_score is the mean of the five stored scores
func (d *Document) Validate() error {
	want := d.Scorecard().AverageScore()
	if math.Abs(d.Scores.AverageScore-want) > averageTolerance {
		return fmt.Errorf("%w: average_score %v, mean of scores %v",
			ErrInconsistentAverage, d.Scores.AverageScore, want)
	}
	return nil
}
