package scorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// Dimension is one scored axis of the rubric
type Dimension struct {
	Score       float64 `json:"score"`       // Numeric rating returned by the model
	Explanation string  `json:"explanation"` // Model rationale for the rating
}

// Usage holds token counters reported by the provider for one call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Scorecard is the five-dimension evaluation of one description
type Scorecard struct {
	Description          string    // Text that was evaluated
	MissionAlignment     Dimension // Mission and strategic alignment
	TechnicalFeasibility Dimension // Technical feasibility
	CompetitiveAdvantage Dimension // Competitive advantage
	FinancialViability   Dimension // Financial and contractual viability
	RiskCompliance       Dimension // Risk and compliance
	Usage                Usage     // Token usage of the scoring call
	Timestamp            time.Time // When the scorecard was produced
	Model                string    // Model identifier reported by the provider
}

// AverageScore is the mean of the five dimension scores. It is always
// derived, never stored.
func (s *Scorecard) AverageScore() float64 {
	sum := s.MissionAlignment.Score +
		s.TechnicalFeasibility.Score +
		s.CompetitiveAdvantage.Score +
		s.FinancialViability.Score +
		s.RiskCompliance.Score
	return sum / DimensionCount
}

// Dimensions returns the five dimensions keyed by their response schema name
func (s *Scorecard) Dimensions() map[string]Dimension {
	return map[string]Dimension{
		KeyMissionAlignment:     s.MissionAlignment,
		KeyTechnicalFeasibility: s.TechnicalFeasibility,
		KeyCompetitiveAdvantage: s.CompetitiveAdvantage,
		KeyFinancialViability:   s.FinancialViability,
		KeyRiskCompliance:       s.RiskCompliance,
	}
}

// Scorer evaluates a description against the opportunity rubric
type Scorer interface {
	// Evaluate sends description to the model and returns the parsed scorecard.
	// Failures of the call or of the response structure match ErrScoringFailed.
	Evaluate(ctx context.Context, description string) (*Scorecard, error)
}

// Provider selects the model backend
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"

	// DimensionCount is the number of rubric dimensions
	DimensionCount = 5

	// Content length limits
	MinContentLength = 1 // Minimum content length to be valid
)

// Config holds the configuration for a scorer
type Config struct {
	Provider             Provider              // Model backend (default openai)
	APIKey               string                // Provider API key (required)
	Model                string                // Model to request
	BaseURL              string                // Optional OpenAI-compatible endpoint override
	SystemPrompt         string                // Rubric prompt override (default embedded prompt)
	Timeout              time.Duration         // Per-call timeout (0 = none)
	EnableCircuitBreaker bool                  // Enable circuit breaker pattern
	CircuitBreakerConfig *CircuitBreakerConfig // Circuit breaker configuration
	Metrics              *MetricsRecorder      // Optional metrics sink
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	MaxRequests   uint32                                      // Max requests in half-open state
	Interval      time.Duration                               // Interval for closed state
	Timeout       time.Duration                               // Timeout for open state
	ReadyToTrip   func(counts gobreaker.Counts) bool          // Custom trip condition
	OnStateChange func(name string, from, to gobreaker.State) // State change callback
}

// OpenAIClient defines the interface for interacting with OpenAI API
type OpenAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Error definitions
var (
	ErrMissingAPIKey     = errors.New("API key is required")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrEmptyInput        = errors.New("description cannot be empty")
	ErrScoringFailed     = errors.New("scoring failed")
	ErrContentTooLong    = errors.New("content exceeds maximum length")
	ErrContentTooShort   = errors.New("content is too short")
	ErrContentWhitespace = errors.New("content contains only whitespace")
)

// ScoringError reports a failed evaluation together with whatever the model
// returned, so the raw content can be logged for diagnosis.
type ScoringError struct {
	Raw string // Raw response content, empty when the call itself failed
	Err error  // Underlying cause
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s: %v", ErrScoringFailed, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Is makes every ScoringError match ErrScoringFailed
func (e *ScoringError) Is(target error) bool { return target == ErrScoringFailed }

// RawResponse extracts the raw model output attached to err, if any
func RawResponse(err error) string {
	var se *ScoringError
	if errors.As(err, &se) {
		return se.Raw
	}
	return ""
}
