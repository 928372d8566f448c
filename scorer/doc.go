// Package scorer evaluates free-text opportunity descriptions against a fixed
// five-dimension rubric using a language model with strict structured output.
//
// Each call to Evaluate sends one description and receives one Scorecard:
// mission and strategic alignment, technical feasibility, competitive
// advantage, financial and contractual viability, and risk and compliance,
// each with a numeric score and an explanation. The average score is derived
// from the five scores and never stored.
//
// Features:
//   - OpenAI chat completions with a strict JSON schema response format
//   - Gemini structured JSON output through the genai SDK
//   - Optional circuit breaker that fails fast while the provider is down
//   - Prometheus metrics on a caller-supplied registry
//   - Description validation (empty, whitespace-only, optional length bounds)
//
// Basic usage:
//
//	cfg := scorer.NewDefaultConfig(os.Getenv("OPENAI_API_KEY"))
//	s, err := scorer.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	card, err := s.Evaluate(ctx, description)
//	if errors.Is(err, scorer.ErrScoringFailed) {
//	    log.Printf("raw response: %s", scorer.RawResponse(err))
//	}
package scorer
