package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// New creates a Scorer for cfg.Provider, wiring the real provider client,
// the optional circuit breaker and metrics.
func New(ctx context.Context, cfg Config) (Scorer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderGemini:
		models, err := newGenAIModels(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		g, err := NewGemini(models, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		o, err := NewWithClient(openai.NewClientWithConfig(clientCfg), cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
}

// OpenAIScorer scores descriptions with one strict structured-output chat
// completion per description
type OpenAIScorer struct {
	client OpenAIClient
	config Config
	prompt string
}

// NewWithClient creates an OpenAI scorer around an existing client. The
// client is wrapped with a circuit breaker when cfg enables one.
func NewWithClient(client OpenAIClient, cfg Config) (*OpenAIScorer, error) {
	cfg = cfg.withDefaults()
	if client == nil {
		return nil, fmt.Errorf("%w: OpenAI client is required", ErrInvalidConfig)
	}

	prompt, err := cfg.systemPrompt()
	if err != nil {
		return nil, err
	}

	if cfg.EnableCircuitBreaker {
		slog.Info("Enabling circuit breaker",
			"max_requests", cfg.CircuitBreakerConfig.MaxRequests,
			"timeout", cfg.CircuitBreakerConfig.Timeout)
		client = NewCircuitBreakerWrapper(client, cfg.circuitBreakerWithMetrics())
	}

	return &OpenAIScorer{
		client: client,
		config: cfg,
		prompt: prompt,
	}, nil
}

// Evaluate implements Scorer
func (s *OpenAIScorer) Evaluate(ctx context.Context, description string) (*Scorecard, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &ScoringError{Err: ErrEmptyInput}
	}

	slog.Debug("Scoring description",
		"model", s.config.Model,
		"description_length", len(description))

	ctx, cancel := s.config.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, s.buildChatRequest(description))
	s.config.Metrics.RecordAPICall(string(ProviderOpenAI), statusOf(err), time.Since(start).Seconds())
	if err != nil {
		s.config.Metrics.RecordError(classifyError(err))
		return nil, &ScoringError{Err: fmt.Errorf("OpenAI API request failed: %w", err)}
	}

	if len(resp.Choices) == 0 {
		s.config.Metrics.RecordError("empty_response")
		return nil, &ScoringError{Err: fmt.Errorf("OpenAI returned empty response with no choices")}
	}

	content := resp.Choices[0].Message.Content
	card, err := parseAnalysis(cleanJSON(content))
	if err != nil {
		s.config.Metrics.RecordError("invalid_response")
		return nil, &ScoringError{Raw: content, Err: err}
	}

	card.Description = description
	card.Usage = Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	card.Model = resp.Model
	if card.Model == "" {
		card.Model = s.config.Model
	}
	card.Timestamp = time.Now()

	s.config.Metrics.RecordScorecard(card)

	slog.Debug("Description scored",
		"model", card.Model,
		"average_score", card.AverageScore(),
		"total_tokens", card.Usage.TotalTokens)

	return card, nil
}

func (s *OpenAIScorer) buildChatRequest(description string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: s.prompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: description,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   SchemaName,
				Schema: ResponseSchema(),
				Strict: true,
			},
		},
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
