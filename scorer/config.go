package scorer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// Default models per provider
const (
	DefaultOpenAIModel = openai.GPT4o20240806
	DefaultGeminiModel = "gemini-2.5-pro"
)

// NewDefaultConfig creates a config with sensible defaults
func NewDefaultConfig(apiKey string) Config {
	if apiKey == "" {
		panic("API key is required")
	}

	return Config{
		Provider: ProviderOpenAI,
		APIKey:   apiKey,
		Model:    DefaultOpenAIModel,
		Timeout:  60 * time.Second,
	}
}

// WithCircuitBreaker enables circuit breaker with default settings
func (c Config) WithCircuitBreaker() Config {
	c.EnableCircuitBreaker = true
	c.CircuitBreakerConfig = defaultCircuitBreakerConfig()
	return c
}

// WithCircuitBreakerConfig enables circuit breaker with custom settings
func (c Config) WithCircuitBreakerConfig(config *CircuitBreakerConfig) Config {
	c.EnableCircuitBreaker = true
	c.CircuitBreakerConfig = config
	return c
}

// WithProvider selects the model backend and resets the model to its default
// when none was chosen for that backend
func (c Config) WithProvider(p Provider) Config {
	if c.Provider != p {
		c.Model = ""
	}
	c.Provider = p
	return c
}

// WithModel sets the model
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithBaseURL points the OpenAI client at a compatible endpoint
func (c Config) WithBaseURL(url string) Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the per-call timeout
func (c Config) WithTimeout(timeout time.Duration) Config {
	if timeout < 0 {
		panic("timeout must be positive")
	}
	c.Timeout = timeout
	return c
}

// WithSystemPrompt replaces the embedded rubric prompt
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithMetrics records provider calls on m
func (c Config) WithMetrics(m *MetricsRecorder) Config {
	c.Metrics = m
	return c
}

// Validate checks if the config is valid
func (c Config) Validate() error {
	// Required fields
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}

	switch c.Provider {
	case "", ProviderOpenAI:
		// Model validation only applies to the default endpoint; compatible
		// endpoints serve their own model names
		if c.Model != "" && c.BaseURL == "" && !isValidModel(c.Model) {
			return fmt.Errorf("%w: unsupported model: %s", ErrInvalidConfig, c.Model)
		}
	case ProviderGemini:
		if c.BaseURL != "" {
			return fmt.Errorf("%w: base URL is only supported for the openai provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown provider: %s", ErrInvalidConfig, c.Provider)
	}

	// Timeout validation
	if c.Timeout < 0 {
		return errors.New("timeout must be positive")
	}

	// Circuit breaker validation
	if c.EnableCircuitBreaker && c.CircuitBreakerConfig == nil {
		return errors.New("circuit breaker enabled but config is nil")
	}

	return nil
}

// withDefaults fills in the provider and model when unset
func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderGemini:
			c.Model = DefaultGeminiModel
		default:
			c.Model = DefaultOpenAIModel
		}
	}
	if c.EnableCircuitBreaker && c.CircuitBreakerConfig == nil {
		c.CircuitBreakerConfig = defaultCircuitBreakerConfig()
	}
	return c
}

func (c Config) systemPrompt() (string, error) {
	if strings.TrimSpace(c.SystemPrompt) != "" {
		return c.SystemPrompt, nil
	}
	return DefaultSystemPrompt()
}

// callContext bounds a single provider call by the configured timeout
func (c Config) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}

// circuitBreakerWithMetrics returns a copy of the breaker config whose state
// changes are also reported to the metrics recorder
func (c Config) circuitBreakerWithMetrics() *CircuitBreakerConfig {
	cb := *c.CircuitBreakerConfig
	if c.Metrics == nil {
		return &cb
	}
	userHook := cb.OnStateChange
	cb.OnStateChange = func(name string, from, to gobreaker.State) {
		c.Metrics.RecordCircuitBreakerState(name, stateToInt(to))
		if to == gobreaker.StateOpen {
			c.Metrics.RecordCircuitBreakerTrip(name)
		}
		if userHook != nil {
			userHook(name, from, to)
		}
	}
	return &cb
}

func defaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if 5 consecutive failures OR failure rate > 60%
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio > 0.6)
		},
	}
}

// isValidModel checks if the model is supported
func isValidModel(model string) bool {
	validModels := []string{
		openai.GPT4o,
		openai.GPT4o20240806,
		openai.GPT4oMini,
		openai.GPT4oMini20240718,
		openai.GPT4Turbo,
		openai.GPT4,
	}

	for _, valid := range validModels {
		if model == valid {
			return true
		}
	}
	return false
}

// stateToInt converts circuit breaker state to int for metrics
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
