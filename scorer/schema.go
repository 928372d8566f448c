package scorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Response schema keys
const (
	KeyOpportunity          = "opportunity"
	KeyMissionAlignment     = "mission_and_strategic_alignment"
	KeyTechnicalFeasibility = "technical_feasibility"
	KeyCompetitiveAdvantage = "competitive_advantage"
	KeyFinancialViability   = "financial_contractual_viability"
	KeyRiskCompliance       = "risk_and_compliance"
)

type dimensionSpec struct {
	key         string
	score       string
	explanation string
}

// dimensionSpecs lists the rubric in schema order
var dimensionSpecs = []dimensionSpec{
	{
		key:         KeyMissionAlignment,
		score:       "Numerical rating of how well this opportunity aligns with core competencies and mission.",
		explanation: "Explanation of how this aligns (or does not align) with your strategic goals and mission.",
	},
	{
		key:         KeyTechnicalFeasibility,
		score:       "Numerical rating of the opportunity's technical fit (technology stack, complexity, timeline feasibility).",
		explanation: "Rationale for how your platform/app delivery capabilities match the technical demands.",
	},
	{
		key:         KeyCompetitiveAdvantage,
		score:       "Numerical rating of how strongly you can differentiate against competitors (past performance, unique strengths).",
		explanation: "Justification for why you have a strong (or weak) position versus likely competitors.",
	},
	{
		key:         KeyFinancialViability,
		score:       "Numerical rating of expected financial return and favorable contract terms.",
		explanation: "Details on contract structure, revenue potential, and how it fits your business model.",
	},
	{
		key:         KeyRiskCompliance,
		score:       "Numerical rating of perceived risk, compliance demands (CD-RMF, NIST, etc.), and your ability to mitigate.",
		explanation: "Explanation of how you'll address security, compliance, and overall risk exposure.",
	},
}

// DimensionKeys returns the five dimension keys in schema order
func DimensionKeys() []string {
	keys := make([]string, len(dimensionSpecs))
	for i, d := range dimensionSpecs {
		keys[i] = d.key
	}
	return keys
}

// ResponseSchema builds the strict structured-output schema: an object with
// exactly one key "opportunity", holding exactly the five dimension objects,
// each with exactly score and explanation. No additional properties are
// allowed at any level.
func ResponseSchema() *jsonschema.Definition {
	dims := make(map[string]jsonschema.Definition, len(dimensionSpecs))
	for _, d := range dimensionSpecs {
		dims[d.key] = jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"score":       {Type: jsonschema.Number, Description: d.score},
				"explanation": {Type: jsonschema.String, Description: d.explanation},
			},
			Required:             []string{"score", "explanation"},
			AdditionalProperties: false,
		}
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			KeyOpportunity: {
				Type:                 jsonschema.Object,
				Properties:           dims,
				Required:             DimensionKeys(),
				AdditionalProperties: false,
			},
		},
		Required:             []string{KeyOpportunity},
		AdditionalProperties: false,
	}
}

// Internal response types for JSON parsing. Pointers distinguish a missing
// key from a zero value.
type analysisResponse struct {
	Opportunity *opportunityResponse `json:"opportunity"`
}

type opportunityResponse struct {
	MissionAlignment     *dimensionResponse `json:"mission_and_strategic_alignment"`
	TechnicalFeasibility *dimensionResponse `json:"technical_feasibility"`
	CompetitiveAdvantage *dimensionResponse `json:"competitive_advantage"`
	FinancialViability   *dimensionResponse `json:"financial_contractual_viability"`
	RiskCompliance       *dimensionResponse `json:"risk_and_compliance"`
}

type dimensionResponse struct {
	Score       *float64 `json:"score"`
	Explanation *string  `json:"explanation"`
}

var errMalformedResponse = errors.New("malformed structured response")

// parseAnalysis decodes the model content into a scorecard with the five
// dimensions filled in. Unknown keys, missing keys, non-finite scores and
// trailing data are all rejected.
func parseAnalysis(content string) (*Scorecard, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var resp analysisResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", errMalformedResponse)
	}
	if resp.Opportunity == nil {
		return nil, fmt.Errorf("%w: missing %q", errMalformedResponse, KeyOpportunity)
	}

	o := resp.Opportunity
	card := &Scorecard{}
	targets := []struct {
		key string
		src *dimensionResponse
		dst *Dimension
	}{
		{KeyMissionAlignment, o.MissionAlignment, &card.MissionAlignment},
		{KeyTechnicalFeasibility, o.TechnicalFeasibility, &card.TechnicalFeasibility},
		{KeyCompetitiveAdvantage, o.CompetitiveAdvantage, &card.CompetitiveAdvantage},
		{KeyFinancialViability, o.FinancialViability, &card.FinancialViability},
		{KeyRiskCompliance, o.RiskCompliance, &card.RiskCompliance},
	}

	for _, t := range targets {
		dim, err := t.src.toDimension()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errMalformedResponse, t.key, err)
		}
		*t.dst = dim
	}

	return card, nil
}

func (d *dimensionResponse) toDimension() (Dimension, error) {
	if d == nil {
		return Dimension{}, errors.New("dimension missing")
	}
	if d.Score == nil {
		return Dimension{}, errors.New("score missing")
	}
	if math.IsNaN(*d.Score) || math.IsInf(*d.Score, 0) {
		return Dimension{}, errors.New("score is not a finite number")
	}
	if d.Explanation == nil {
		return Dimension{}, errors.New("explanation missing")
	}
	if strings.TrimSpace(*d.Explanation) == "" {
		return Dimension{}, errors.New("explanation empty")
	}
	return Dimension{Score: *d.Score, Explanation: *d.Explanation}, nil
}

// cleanJSON strips markdown code fences some models wrap around JSON output
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
