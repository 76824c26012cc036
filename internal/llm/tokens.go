package llm

// Token-budget estimation. A character-count heuristic (~4 chars per
// token), not a real tokenizer; advisory only.

// DefaultContextLimit is assumed for models missing from contextLimits.
// Unknown models get a conservative limit rather than an error.
const DefaultContextLimit = 4000

// contextLimits maps model names to their context window in tokens.
var contextLimits = map[string]int{
	"deepseek/deepseek-r1-distill-llama-8b": 8192,
	"deepseek/deepseek-v3.1":                8192,
	"gpt-4":                                 8000,
	"gpt-3.5-turbo":                         4000,
	"gpt-4-32k":                             32000,
}

// EstimateTokens estimates the token count of a text string,
// rounding up at ~4 characters per token.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// ContextLimit returns the known context window for a model, or
// DefaultContextLimit for unknown models.
func ContextLimit(model string) int {
	if limit, ok := contextLimits[model]; ok {
		return limit
	}
	return DefaultContextLimit
}

// CheckTokenLimit reports whether the prompt fits comfortably (under 80%)
// within the model's context window.
func CheckTokenLimit(prompt, model string) bool {
	return float64(EstimateTokens(prompt)) < 0.8*float64(ContextLimit(model))
}
