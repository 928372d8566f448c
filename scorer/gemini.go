package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// GenAIModels is the part of the Gemini client the scorer uses. *genai.Models
// satisfies it.
type GenAIModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func newGenAIModels(ctx context.Context, apiKey string) (GenAIModels, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client.Models, nil
}

// GeminiScorer scores descriptions with Gemini structured JSON output
type GeminiScorer struct {
	models GenAIModels
	config Config
	prompt string
}

// NewGemini creates a Gemini scorer around an existing models client
func NewGemini(models GenAIModels, cfg Config) (*GeminiScorer, error) {
	cfg = cfg.WithProvider(ProviderGemini).withDefaults()
	if models == nil {
		return nil, fmt.Errorf("%w: genai models client is required", ErrInvalidConfig)
	}

	prompt, err := cfg.systemPrompt()
	if err != nil {
		return nil, err
	}

	if cfg.EnableCircuitBreaker {
		slog.Info("Enabling circuit breaker",
			"max_requests", cfg.CircuitBreakerConfig.MaxRequests,
			"timeout", cfg.CircuitBreakerConfig.Timeout)
		models = &genAICircuitBreaker{
			models: models,
			cb:     gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](breakerSettings("gemini-api", cfg.circuitBreakerWithMetrics())),
		}
	}

	return &GeminiScorer{models: models, config: cfg, prompt: prompt}, nil
}

// Evaluate implements Scorer
func (g *GeminiScorer) Evaluate(ctx context.Context, description string) (*Scorecard, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &ScoringError{Err: ErrEmptyInput}
	}

	slog.Debug("Scoring description",
		"model", g.config.Model,
		"description_length", len(description))

	ctx, cancel := g.config.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.config.Model, genai.Text(description), g.generateConfig())
	g.config.Metrics.RecordAPICall(string(ProviderGemini), statusOf(err), time.Since(start).Seconds())
	if err != nil {
		g.config.Metrics.RecordError(classifyError(err))
		return nil, &ScoringError{Err: fmt.Errorf("gemini generate content: %w", err)}
	}

	content := responseText(resp)
	if content == "" {
		g.config.Metrics.RecordError("empty_response")
		return nil, &ScoringError{Err: fmt.Errorf("gemini api returned empty response")}
	}

	card, err := parseAnalysis(cleanJSON(content))
	if err != nil {
		g.config.Metrics.RecordError("invalid_response")
		return nil, &ScoringError{Raw: content, Err: err}
	}

	card.Description = description
	if u := resp.UsageMetadata; u != nil {
		card.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	card.Model = resp.ModelVersion
	if card.Model == "" {
		card.Model = g.config.Model
	}
	card.Timestamp = time.Now()

	g.config.Metrics.RecordScorecard(card)
	return card, nil
}

func (g *GeminiScorer) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: g.prompt}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   GeminiResponseSchema(),
	}
}

// GeminiResponseSchema mirrors ResponseSchema in the Gemini schema dialect
func GeminiResponseSchema() *genai.Schema {
	dims := make(map[string]*genai.Schema, len(dimensionSpecs))
	for _, d := range dimensionSpecs {
		dims[d.key] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":       {Type: genai.TypeNumber, Description: d.score},
				"explanation": {Type: genai.TypeString, Description: d.explanation},
			},
			Required:         []string{"score", "explanation"},
			PropertyOrdering: []string{"score", "explanation"},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			KeyOpportunity: {
				Type:             genai.TypeObject,
				Properties:       dims,
				Required:         DimensionKeys(),
				PropertyOrdering: DimensionKeys(),
			},
		},
		Required: []string{KeyOpportunity},
	}
}

// responseText joins the text parts of every candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

type genAICircuitBreaker struct {
	models GenAIModels
	cb     *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
}

func (b *genAICircuitBreaker) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := b.cb.Execute(func() (*genai.GenerateContentResponse, error) {
		return b.models.GenerateContent(ctx, model, contents, config)
	})
	if err != nil {
		logBreakerError(err)
	}
	return resp, err
}
